package profile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_ID(t *testing.T) {
	t.Parallel()
	snap := Snapshot{
		SteamID:     "76561198095524866",
		GeneratedAt: time.Unix(1700000000, 0).UTC(),
		OwnedGames:  OwnedGames{GameCount: 2},
	}
	first := snap.ID()
	second := snap.ID()
	assert.Equal(t, first, second)
	assert.Contains(t, first, "steam:76561198095524866:")

	snap.OwnedGames.GameCount = 3
	assert.NotEqual(t, first, snap.ID())
}

func TestSnapshot_Validate(t *testing.T) {
	t.Parallel()
	snap := Snapshot{
		SteamID: "76561198095524866",
		OwnedGames: OwnedGames{
			GameCount: 1,
			Games: []GameRecord{
				{AppID: 230410, Name: "Warframe", PlaytimeMinutes: 96973},
			},
		},
	}
	assert.NoError(t, snap.Validate())

	empty := Snapshot{SteamID: "76561198095524866"}
	assert.NoError(t, empty.Validate(), "an empty library is a legitimate state")

	missingID := Snapshot{}
	assert.Error(t, missingID.Validate())

	truncated := Snapshot{SteamID: "1", OwnedGames: OwnedGames{GameCount: 5}}
	assert.Error(t, truncated.Validate())

	negative := snap
	negative.OwnedGames.Games = []GameRecord{{AppID: 1, Name: "blah", PlaytimeMinutes: -1}}
	assert.Error(t, negative.Validate())
}

func TestSnapshot_ComputeStats(t *testing.T) {
	t.Parallel()
	snap := Snapshot{
		SteamID:        "76561198095524866",
		RecentlyPlayed: 3,
		OwnedGames: OwnedGames{
			// game_count may exceed the list length if the source was truncated upstream
			GameCount: 4,
			Games: []GameRecord{
				{AppID: 1, Name: "Warframe", PlaytimeMinutes: 90},
				{AppID: 2, Name: "Trove", PlaytimeMinutes: 45},
				{AppID: 3, Name: "Stardew Valley", PlaytimeMinutes: 0},
			},
		},
	}
	stats := snap.ComputeStats()
	assert.Equal(t, 4, stats.TotalGames)
	assert.Equal(t, 2.25, stats.TotalPlaytimeHours)
	assert.Equal(t, 3, stats.GamesPlayed2Weeks)
}

func TestSnapshot_ComputeStats_RoundsHours(t *testing.T) {
	t.Parallel()
	snap := Snapshot{
		OwnedGames: OwnedGames{
			GameCount: 1,
			Games:     []GameRecord{{AppID: 1, Name: "Warframe", PlaytimeMinutes: 100}},
		},
	}
	assert.Equal(t, 1.67, snap.ComputeStats().TotalPlaytimeHours)
}

func TestSnapshot_RoundTripsThroughJSON(t *testing.T) {
	t.Parallel()
	raw := `{
		"owned_games": {"game_count": 2, "games": [
			{"appid": 230410, "name": "Warframe", "playtime_forever": 96973, "img_icon_url": "abc"},
			{"appid": 413150, "name": "Stardew Valley", "playtime_forever": 0}
		]},
		"player_summary": {"personaname": "marlin", "timecreated": 1262304000},
		"badges": {"badges": [{"badgeid": 13, "level": 127, "xp": 1017, "scarcity": 5171}], "player_level": 42}
	}`
	var snap Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, 2, snap.OwnedGames.GameCount)
	assert.Equal(t, "Warframe", snap.OwnedGames.Games[0].Name)
	assert.Equal(t, 96973, snap.OwnedGames.Games[0].PlaytimeMinutes)
	assert.Equal(t, "marlin", snap.PlayerSummary.PersonaName)
	assert.Equal(t, int64(1262304000), snap.PlayerSummary.TimeCreated)
	require.Len(t, snap.Badges.Badges, 1)
	assert.Equal(t, 13, snap.Badges.Badges[0].BadgeID)
	assert.Equal(t, 42, snap.Badges.PlayerLevel)
}

func TestFormatPlaytime(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "45 minutes", FormatPlaytime(45))
	assert.Equal(t, "0 minutes", FormatPlaytime(0))
	assert.Equal(t, "1.5 hours", FormatPlaytime(90))
	assert.Equal(t, "23.9 hours", FormatPlaytime(1436))
	assert.Equal(t, "1.0 days (24 hours)", FormatPlaytime(1440))
	assert.Equal(t, "67.3 days (1616 hours)", FormatPlaytime(96973))
}
