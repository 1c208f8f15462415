package snapshots

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/r3labs/sse/v2"

	"github.com/steamboard/steamboard/artwork"
	"github.com/steamboard/steamboard/events"
	"github.com/steamboard/steamboard/profile"
)

// StoredSnapshot is the metadata row for one snapshot run. The full
// profile document rides along as a JSON payload so computed views can
// be rebuilt without another API call.
type StoredSnapshot struct {
	ID                   string    `db:"id" json:"id"`
	SteamID              string    `db:"steam_id" json:"steam_id"`
	PersonaName          string    `db:"persona_name" json:"persona_name"`
	GameCount            int       `db:"game_count" json:"game_count"`
	TotalPlaytimeMinutes int       `db:"total_playtime_minutes" json:"total_playtime_minutes"`
	SteamLevel           int       `db:"steam_level" json:"steam_level"`
	Payload              string    `db:"payload" json:"-"`
	IsLatest             bool      `db:"is_latest" json:"is_latest"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// StoredGame is one library entry within a snapshot, with any artwork
// captured at refresh time.
type StoredGame struct {
	SnapshotID      string                      `db:"snapshot_id" json:"-"`
	AppID           int                         `db:"app_id" json:"app_id"`
	Name            string                      `db:"name" json:"name"`
	PlaytimeMinutes int                         `db:"playtime_minutes" json:"playtime_minutes"`
	IconURL         string                      `db:"icon_url" json:"icon_url,omitempty"`
	CoverLocation   string                      `db:"cover_location" json:"cover_location,omitempty"`
	DominantColours artwork.SerializableColours `db:"dominant_colours" json:"dominant_colours"`
}

// System owns the snapshot history and keeps the most recent run in
// memory so request handlers never need to hit the database on the
// hot path.
type System struct {
	Latest *StoredSnapshot
	db     *sqlx.DB
	m      sync.RWMutex
}

func NewSystem(db *sqlx.DB) *System {
	return &System{db: db}
}

// RecordSnapshot persists a fresh snapshot run, demoting whatever was
// latest before it. Artwork is optional and keyed by app id.
func (s *System) RecordSnapshot(snap profile.Snapshot, art map[int]artwork.Art) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot payload: %w", err)
	}

	stored := StoredSnapshot{
		ID:                   snap.ID(),
		SteamID:              snap.SteamID,
		PersonaName:          snap.PlayerSummary.PersonaName,
		GameCount:            snap.OwnedGames.GameCount,
		TotalPlaytimeMinutes: snap.TotalPlaytimeMinutes(),
		SteamLevel:           snap.SteamLevel,
		Payload:              string(payload),
		IsLatest:             true,
		CreatedAt:            snap.GeneratedAt,
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}

	var committed bool
	defer func() {
		if !committed {
			tx.Rollback()
		} else {
			s.RefreshLatest()
			s.broadcastEvent()
		}
	}()

	_, err = tx.Exec(`UPDATE snapshots SET is_latest = FALSE WHERE is_latest = TRUE`)
	if err != nil {
		return fmt.Errorf("failed to demote previous snapshot: %w", err)
	}

	// Re-recording an identical run just refreshes its payload and
	// promotes it back to latest
	_, err = tx.NamedExec(`
	  INSERT INTO snapshots
	  (id, steam_id, persona_name, game_count, total_playtime_minutes, steam_level, payload, is_latest, created_at)
	  VALUES (:id, :steam_id, :persona_name, :game_count, :total_playtime_minutes, :steam_level, :payload, :is_latest, :created_at)
	  ON CONFLICT (id) DO UPDATE SET
	    payload = excluded.payload,
	    is_latest = TRUE,
	    created_at = excluded.created_at`,
		stored)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, g := range snap.OwnedGames.Games {
		row := StoredGame{
			SnapshotID:      stored.ID,
			AppID:           g.AppID,
			Name:            g.Name,
			PlaytimeMinutes: g.PlaytimeMinutes,
			IconURL:         g.IconURL,
			DominantColours: artwork.SerializableColours{},
		}
		if a, ok := art[g.AppID]; ok {
			row.CoverLocation = a.CoverLocation
			row.DominantColours = a.DominantColours
		}
		_, err = tx.NamedExec(`
		  INSERT INTO snapshot_games
		  (snapshot_id, app_id, name, playtime_minutes, icon_url, cover_location, dominant_colours)
		  VALUES (:snapshot_id, :app_id, :name, :playtime_minutes, :icon_url, :cover_location, :dominant_colours)
		  ON CONFLICT (snapshot_id, app_id) DO NOTHING`,
			row)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot game %d: %w", g.AppID, err)
		}
	}

	slog.Debug("Recorded snapshot",
		slog.String("snapshot_id", stored.ID),
		slog.Int("game_count", stored.GameCount))

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *System) broadcastEvent() {
	// Just enough to ping dashboard clients to refetch the datasets
	s.m.RLock()
	latest := s.Latest
	s.m.RUnlock()
	if latest == nil {
		return
	}
	jsonState, _ := json.Marshal(latest)
	events.Server.Publish("snapshots", &sse.Event{Data: jsonState})
}

func (s *System) RefreshLatest() error {
	latest, err := s.getLatest()
	if err != nil {
		if err == sql.ErrNoRows {
			s.m.Lock()
			s.Latest = nil
			s.m.Unlock()
			return nil
		}
		return err
	}

	s.m.Lock()
	defer s.m.Unlock()

	s.Latest = &latest

	return nil
}

func (s *System) getLatest() (StoredSnapshot, error) {
	var result StoredSnapshot
	err := s.db.Get(&result, `
	  SELECT id, steam_id, persona_name, game_count, total_playtime_minutes, steam_level, payload, is_latest, created_at
	  FROM snapshots
	  WHERE is_latest = TRUE
	  ORDER BY created_at DESC LIMIT 1`)
	return result, err
}

// GetLatest prefers the in-memory copy and falls back to the database on
// a cold start.
func (s *System) GetLatest() (StoredSnapshot, error) {
	s.m.RLock()
	latest := s.Latest
	s.m.RUnlock()
	if latest != nil {
		return *latest, nil
	}
	return s.getLatest()
}

// LatestProfile rehydrates the full profile document from the latest
// snapshot's payload.
func (s *System) LatestProfile() (profile.Snapshot, error) {
	var snap profile.Snapshot
	stored, err := s.GetLatest()
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal([]byte(stored.Payload), &snap); err != nil {
		return snap, fmt.Errorf("failed to unmarshal snapshot payload: %w", err)
	}
	return snap, nil
}

// GetGames returns a snapshot's library ordered by playtime.
func (s *System) GetGames(snapshotID string) ([]StoredGame, error) {
	var results []StoredGame
	err := s.db.Select(&results, `
	  SELECT snapshot_id, app_id, name, playtime_minutes, icon_url, cover_location, dominant_colours
	  FROM snapshot_games
	  WHERE snapshot_id = ?
	  ORDER BY playtime_minutes DESC`, snapshotID)
	return results, err
}

func (s *System) GetHistory(limit int) ([]StoredSnapshot, error) {
	var results []StoredSnapshot

	if limit <= 0 {
		return results, fmt.Errorf("must request at least one historical snapshot")
	}

	err := s.db.Select(&results, `
	  SELECT id, steam_id, persona_name, game_count, total_playtime_minutes, steam_level, payload, is_latest, created_at
	  FROM snapshots
	  ORDER BY created_at DESC
	  LIMIT ?`, limit)

	return results, err
}

func (s *System) DeleteSnapshot(id string) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}

	var committed bool
	defer func() {
		if !committed {
			tx.Rollback()
		} else {
			s.RefreshLatest()
		}
	}()

	if _, err := tx.Exec(`DELETE FROM snapshot_games WHERE snapshot_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
