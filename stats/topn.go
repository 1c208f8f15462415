package stats

import (
	"sort"

	"github.com/steamboard/steamboard/profile"
)

// SelectTop returns the n most played games in descending playtime order.
// Games that were never launched are excluded from ranked views. The sort
// is stable so ties keep their original relative order.
func SelectTop(games []profile.GameRecord, n int) []profile.GameRecord {
	if n <= 0 {
		return []profile.GameRecord{}
	}
	played := make([]profile.GameRecord, 0, len(games))
	for _, g := range games {
		if g.PlaytimeMinutes > 0 {
			played = append(played, g)
		}
	}
	sort.SliceStable(played, func(i, j int) bool {
		return played[i].PlaytimeMinutes > played[j].PlaytimeMinutes
	})
	if len(played) > n {
		played = played[:n]
	}
	return played
}
