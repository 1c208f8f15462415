package snapshots

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/steamboard/steamboard/artwork"
)

func TestSystem_GetGames_QueryShape(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	db := sqlx.NewDb(mockDB, "sqlmock")

	rows := sqlmock.NewRows([]string{"snapshot_id", "app_id", "name", "playtime_minutes", "icon_url", "cover_location", "dominant_colours"}).
		AddRow("steam:76561198095524866:1", 230410, "Warframe", 96973, "abc", "/static/cover.abc.jpeg", `["#00d8ff","#ffd700"]`).
		AddRow("steam:76561198095524866:1", 304050, "Trove", 5321, "", "", `[]`)

	mock.ExpectQuery("SELECT snapshot_id, app_id, name, playtime_minutes, icon_url, cover_location, dominant_colours").
		WithArgs("steam:76561198095524866:1").
		WillReturnRows(rows)

	s := NewSystem(db)
	games, err := s.GetGames("steam:76561198095524866:1")
	require.NoError(t, err)

	want := []StoredGame{
		{
			SnapshotID:      "steam:76561198095524866:1",
			AppID:           230410,
			Name:            "Warframe",
			PlaytimeMinutes: 96973,
			IconURL:         "abc",
			CoverLocation:   "/static/cover.abc.jpeg",
			DominantColours: artwork.SerializableColours{"#00d8ff", "#ffd700"},
		},
		{
			SnapshotID:      "steam:76561198095524866:1",
			AppID:           304050,
			Name:            "Trove",
			PlaytimeMinutes: 5321,
			DominantColours: artwork.SerializableColours{},
		},
	}
	if diff := cmp.Diff(want, games); diff != "" {
		t.Errorf("GetGames mismatch (-want +got):\n%s", diff)
	}

	require.NoError(t, mock.ExpectationsWereMet())
}
