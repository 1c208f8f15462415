package profile

import (
	"fmt"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// GameRecord is one owned game as reported by the Steam Web API.
// Field names follow GetOwnedGames so snapshots round-trip cleanly
// through the static dataset files.
type GameRecord struct {
	AppID           int    `json:"appid" db:"app_id"`
	Name            string `json:"name" db:"name"`
	PlaytimeMinutes int    `json:"playtime_forever" db:"playtime_minutes"`
	Playtime2Weeks  int    `json:"playtime_2weeks,omitempty" db:"-"`
	IconURL         string `json:"img_icon_url,omitempty" db:"icon_url"`
}

type OwnedGames struct {
	GameCount int          `json:"game_count"`
	Games     []GameRecord `json:"games"`
}

type PlayerSummary struct {
	SteamID     string `json:"steamid"`
	PersonaName string `json:"personaname"`
	TimeCreated int64  `json:"timecreated"`
	Avatar      string `json:"avatarfull,omitempty"`
	ProfileURL  string `json:"profileurl,omitempty"`
}

type Badge struct {
	BadgeID        int   `json:"badgeid"`
	Level          int   `json:"level"`
	CompletionTime int64 `json:"completion_time,omitempty"`
	XP             int   `json:"xp"`
	Scarcity       int   `json:"scarcity"`
}

type Badges struct {
	Badges      []Badge `json:"badges,omitempty"`
	PlayerXP    int     `json:"player_xp"`
	PlayerLevel int     `json:"player_level"`
	XPToLevelUp int     `json:"player_xp_needed_to_level_up"`
}

// Stats is the roll-up block the dashboard renders at the top of the
// profile page. The achievement fields are filled in separately once
// the per-game unlock state has been scanned.
type Stats struct {
	TotalGames            int     `json:"total_games"`
	TotalPlaytimeHours    float64 `json:"total_playtime_hours"`
	GamesPlayed2Weeks     int     `json:"games_played_2weeks"`
	TotalAchievements     int     `json:"total_achievements,omitempty"`
	UnlockedAchievements  int     `json:"unlocked_achievements,omitempty"`
	AchievementCompletion float64 `json:"achievement_completion,omitempty"`
	PerfectGames          int     `json:"perfect_games,omitempty"`
}

// Snapshot is a point-in-time capture of a player's library and account
// metadata. It is read-only once built and rebuilt from scratch on each
// refresh. All of the computed views (top games, themes, spending) take
// a Snapshot as their only input.
type Snapshot struct {
	SteamID        string        `json:"steam_id"`
	GeneratedAt    time.Time     `json:"generated_at"`
	PlayerSummary  PlayerSummary `json:"player_summary"`
	OwnedGames     OwnedGames    `json:"owned_games"`
	RecentlyPlayed int           `json:"recently_played_count"`
	SteamLevel     int           `json:"steam_level"`
	Badges         Badges        `json:"badges"`
	Stats          Stats         `json:"stats"`
}

// ID returns a stable identifier for this snapshot run. It's deterministic
// so running it a bunch of times doesn't matter.
func (s Snapshot) ID() string {
	hashString := fmt.Sprintf("%s-%d-%d",
		s.SteamID,
		s.GeneratedAt.Unix(),
		s.OwnedGames.GameCount,
	)
	return fmt.Sprintf("steam:%s:%d", s.SteamID, xxhash.Sum64String(hashString))
}

// Validate fails fast on malformed input rather than silently defaulting.
// An empty library is fine, negative playtime or a missing owned_games
// block is not.
func (s Snapshot) Validate() error {
	if s.SteamID == "" {
		return fmt.Errorf("snapshot is missing a steam id")
	}
	if s.OwnedGames.GameCount < 0 {
		return fmt.Errorf("snapshot has a negative game count: %d", s.OwnedGames.GameCount)
	}
	if s.OwnedGames.GameCount > 0 && s.OwnedGames.Games == nil {
		return fmt.Errorf("snapshot reports %d games but carries no game list", s.OwnedGames.GameCount)
	}
	for _, g := range s.OwnedGames.Games {
		if g.PlaytimeMinutes < 0 {
			return fmt.Errorf("game %d (%s) has negative playtime: %d", g.AppID, g.Name, g.PlaytimeMinutes)
		}
	}
	return nil
}

// TotalPlaytimeMinutes sums lifetime playtime across the whole library,
// including games that were never launched.
func (s Snapshot) TotalPlaytimeMinutes() int {
	total := 0
	for _, g := range s.OwnedGames.Games {
		total += g.PlaytimeMinutes
	}
	return total
}

func (s Snapshot) ComputeStats() Stats {
	totalMinutes := s.TotalPlaytimeMinutes()
	return Stats{
		TotalGames:         s.OwnedGames.GameCount,
		TotalPlaytimeHours: roundTo2(float64(totalMinutes) / 60),
		GamesPlayed2Weeks:  s.RecentlyPlayed,
	}
}

func roundTo2(f float64) float64 {
	return math.Round(f*100) / 100
}

// FormatPlaytime converts minutes into the human-readable form the
// dashboard shows next to each game.
func FormatPlaytime(minutes int) string {
	hours := float64(minutes) / 60
	if hours < 1 {
		return fmt.Sprintf("%d minutes", minutes)
	}
	if hours < 24 {
		return fmt.Sprintf("%.1f hours", hours)
	}
	days := hours / 24
	return fmt.Sprintf("%.1f days (%.0f hours)", days, hours)
}
