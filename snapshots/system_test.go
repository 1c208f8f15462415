package snapshots

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steamboard/steamboard/artwork"
	"github.com/steamboard/steamboard/events"
	"github.com/steamboard/steamboard/migrations"
	"github.com/steamboard/steamboard/profile"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)

	goose.SetBaseFS(migrations.GetMigrations())

	err = goose.SetDialect("sqlite3")
	require.NoError(t, err)

	err = goose.Up(db.DB, ".")
	require.NoError(t, err)

	// Gross, System should handle this
	events.Init()
	events.Server.CreateStream("snapshots")

	return db
}

func testSnapshot(generatedAt time.Time) profile.Snapshot {
	snap := profile.Snapshot{
		SteamID:     "76561198095524866",
		GeneratedAt: generatedAt,
		PlayerSummary: profile.PlayerSummary{
			SteamID:     "76561198095524866",
			PersonaName: "marlin",
			TimeCreated: 1262304000,
		},
		RecentlyPlayed: 2,
		SteamLevel:     42,
		OwnedGames: profile.OwnedGames{
			GameCount: 3,
			Games: []profile.GameRecord{
				{AppID: 230410, Name: "Warframe", PlaytimeMinutes: 96973, IconURL: "abc"},
				{AppID: 304050, Name: "Trove", PlaytimeMinutes: 5321},
				{AppID: 413150, Name: "Stardew Valley", PlaytimeMinutes: 0},
			},
		},
	}
	snap.Stats = snap.ComputeStats()
	return snap
}

func TestSystem_RecordSnapshot(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewSystem(db)
	assert.Nil(t, s.Latest)

	snap := testSnapshot(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	art := map[int]artwork.Art{
		230410: {
			CoverLocation:   "/static/cover.abc.jpeg",
			DominantColours: artwork.SerializableColours{"#00d8ff", "#ffd700"},
		},
	}

	err := s.RecordSnapshot(snap, art)
	require.NoError(t, err)

	// 1. The metadata row should be persisted and marked latest
	var stored StoredSnapshot
	err = db.Get(&stored, "SELECT * FROM snapshots WHERE id = ?", snap.ID())
	require.NoError(t, err)
	assert.Equal(t, "76561198095524866", stored.SteamID)
	assert.Equal(t, "marlin", stored.PersonaName)
	assert.Equal(t, 3, stored.GameCount)
	assert.Equal(t, 96973+5321, stored.TotalPlaytimeMinutes)
	assert.Equal(t, 42, stored.SteamLevel)
	assert.Equal(t, true, stored.IsLatest)

	// 2. Per-game rows carry artwork when it was captured
	games, err := s.GetGames(snap.ID())
	require.NoError(t, err)
	require.Len(t, games, 3)
	assert.Equal(t, "Warframe", games[0].Name)
	assert.Equal(t, "/static/cover.abc.jpeg", games[0].CoverLocation)
	assert.Equal(t, artwork.SerializableColours{"#00d8ff", "#ffd700"}, games[0].DominantColours)
	assert.Equal(t, "Trove", games[1].Name)
	assert.Empty(t, games[1].CoverLocation)

	// 3. The system has fresh in-memory state
	require.NotNil(t, s.Latest)
	assert.Equal(t, snap.ID(), s.Latest.ID)
}

func TestSystem_RecordSnapshot_DemotesPrevious(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewSystem(db)

	first := testSnapshot(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.RecordSnapshot(first, nil))

	second := testSnapshot(time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.RecordSnapshot(second, nil))

	var stored StoredSnapshot
	require.NoError(t, db.Get(&stored, "SELECT * FROM snapshots WHERE id = ?", first.ID()))
	assert.Equal(t, false, stored.IsLatest)

	require.NoError(t, db.Get(&stored, "SELECT * FROM snapshots WHERE id = ?", second.ID()))
	assert.Equal(t, true, stored.IsLatest)

	require.NotNil(t, s.Latest)
	assert.Equal(t, second.ID(), s.Latest.ID)
}

func TestSystem_RecordSnapshot_RejectsMalformedInput(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewSystem(db)

	bad := profile.Snapshot{OwnedGames: profile.OwnedGames{GameCount: 5}}
	assert.Error(t, s.RecordSnapshot(bad, nil))
	assert.Nil(t, s.Latest)
}

func TestSystem_GetLatest_ColdStart(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewSystem(db)
	snap := testSnapshot(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.RecordSnapshot(snap, nil))

	// A fresh System over the same database simulates a restart
	restarted := NewSystem(db)
	stored, err := restarted.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, snap.ID(), stored.ID)

	require.NoError(t, restarted.RefreshLatest())
	require.NotNil(t, restarted.Latest)
	assert.Equal(t, snap.ID(), restarted.Latest.ID)
}

func TestSystem_LatestProfile(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewSystem(db)
	snap := testSnapshot(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.RecordSnapshot(snap, nil))

	got, err := s.LatestProfile()
	require.NoError(t, err)
	assert.Equal(t, snap.SteamID, got.SteamID)
	assert.Equal(t, snap.OwnedGames.GameCount, got.OwnedGames.GameCount)
	assert.Equal(t, "Warframe", got.OwnedGames.Games[0].Name)
	assert.Equal(t, snap.Stats, got.Stats)
}

func TestSystem_GetHistory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewSystem(db)

	first := testSnapshot(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.RecordSnapshot(first, nil))

	second := testSnapshot(time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.RecordSnapshot(second, nil))

	history, err := s.GetHistory(10)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// Newest runs come back first
	assert.Equal(t, second.ID(), history[0].ID)
	assert.Equal(t, first.ID(), history[1].ID)

	history, err = s.GetHistory(1)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = s.GetHistory(0)
	assert.Error(t, err)

	_, err = s.GetHistory(-1)
	assert.Error(t, err)
}

func TestSystem_DeleteSnapshot(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	s := NewSystem(db)
	snap := testSnapshot(time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.RecordSnapshot(snap, nil))
	require.NotNil(t, s.Latest)

	require.NoError(t, s.DeleteSnapshot(snap.ID()))

	history, err := s.GetHistory(10)
	require.NoError(t, err)
	assert.Len(t, history, 0)

	games, err := s.GetGames(snap.ID())
	require.NoError(t, err)
	assert.Len(t, games, 0)

	assert.Nil(t, s.Latest)
}
