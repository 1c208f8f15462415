package datasets

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/steamboard/steamboard/artwork"
	"github.com/steamboard/steamboard/profile"
	"github.com/steamboard/steamboard/stats"
	"github.com/steamboard/steamboard/steam"
)

// leaderboardSize is how many entries the static leaderboard carries.
// The API serves smaller slices on demand so this only bounds the
// generated file.
const leaderboardSize = 50

// Writer persists generated datasets as indented JSON files so they
// can be served as-is by any static file host.
type Writer struct {
	OutputDir string
}

func NewWriter(outputDir string) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}
	return &Writer{OutputDir: outputDir}, nil
}

func (w *Writer) saveJSON(data any, filename string) error {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filename, err)
	}
	path := filepath.Join(w.OutputDir, filename)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	slog.Debug("Saved dataset", slog.String("path", path))
	return nil
}

// WriteProfile saves the full profile snapshot, stats included.
func (w *Writer) WriteProfile(snap profile.Snapshot) error {
	return w.saveJSON(snap, fmt.Sprintf("profile_%s.json", snap.SteamID))
}

type TopGame struct {
	Rank                  int                         `json:"rank"`
	AppID                 int                         `json:"app_id"`
	Name                  string                      `json:"name"`
	PlaytimeMinutes       int                         `json:"playtime_minutes"`
	PlaytimeHours         float64                     `json:"playtime_hours"`
	PlaytimeFormatted     string                      `json:"playtime_formatted"`
	Playtime2WeeksMinutes int                         `json:"playtime_2weeks_minutes"`
	IconURL               string                      `json:"img_icon_url,omitempty"`
	DominantColours       artwork.SerializableColours `json:"dominant_colours,omitempty"`
}

type Leaderboard struct {
	SteamID     string    `json:"steam_id"`
	GeneratedAt time.Time `json:"generated_at"`
	TotalGames  int       `json:"total_games"`
	TopGames    []TopGame `json:"top_games"`
}

// BuildTopGames ranks the most played games, skipping anything with no
// playtime on record. Artwork is optional and keyed by app id.
func BuildTopGames(games []profile.GameRecord, count int, art map[int]artwork.Art) []TopGame {
	selected := stats.SelectTop(games, count)
	top := make([]TopGame, 0, len(selected))
	for idx, game := range selected {
		entry := TopGame{
			Rank:                  idx + 1,
			AppID:                 game.AppID,
			Name:                  game.Name,
			PlaytimeMinutes:       game.PlaytimeMinutes,
			PlaytimeHours:         math.Round(float64(game.PlaytimeMinutes)/60*100) / 100,
			PlaytimeFormatted:     profile.FormatPlaytime(game.PlaytimeMinutes),
			Playtime2WeeksMinutes: game.Playtime2Weeks,
			IconURL:               game.IconURL,
		}
		if a, ok := art[game.AppID]; ok {
			entry.DominantColours = a.DominantColours
		}
		top = append(top, entry)
	}
	return top
}

// WriteTopGames saves the playtime leaderboard for a snapshot.
func (w *Writer) WriteTopGames(snap profile.Snapshot, art map[int]artwork.Art) error {
	leaderboard := Leaderboard{
		SteamID:     snap.SteamID,
		GeneratedAt: snap.GeneratedAt,
		TotalGames:  snap.OwnedGames.GameCount,
		TopGames:    BuildTopGames(snap.OwnedGames.Games, leaderboardSize, art),
	}
	return w.saveJSON(leaderboard, fmt.Sprintf("top_games_%s.json", snap.SteamID))
}

type GameStats struct {
	AppID                  int                        `json:"app_id"`
	AppName                string                     `json:"app_name"`
	GeneratedAt            time.Time                  `json:"generated_at"`
	CurrentPlayers         int                        `json:"current_players"`
	AchievementPercentages []steam.AchievementPercent `json:"achievement_percentages"`
	News                   []steam.NewsItem           `json:"news"`
}

// WriteGameStats saves per-game statistics for the most played games.
func (w *Writer) WriteGameStats(allStats []GameStats) error {
	return w.saveJSON(allStats, "popular_games_stats.json")
}

type GameAchievementProgress struct {
	AppID      int     `json:"app_id"`
	Name       string  `json:"name"`
	Total      int     `json:"total_achievements"`
	Unlocked   int     `json:"unlocked_achievements"`
	Completion float64 `json:"completion_percentage"`
}

type AchievementSummary struct {
	TotalGames            int     `json:"total_games"`
	GamesWithAchievements int     `json:"games_with_achievements"`
	TotalAchievements     int     `json:"total_achievements"`
	TotalUnlocked         int     `json:"total_unlocked"`
	CompletionPercentage  float64 `json:"completion_percentage"`
	PerfectGamesCount     int     `json:"perfect_games_count"`
}

type AchievementsDataset struct {
	SteamID           string                    `json:"steam_id"`
	GeneratedAt       time.Time                 `json:"generated_at"`
	Summary           AchievementSummary        `json:"summary"`
	PerfectGames      []GameAchievementProgress `json:"perfect_games"`
	GamesWithProgress []GameAchievementProgress `json:"games_with_progress"`
}

const (
	perfectGamesLimit      = 10
	gamesWithProgressLimit = 20
)

// BuildAchievementsDataset rolls per-game unlock state into the summary
// block plus the perfect and in-progress shortlists. totalGames is the
// whole library size, not just the games that were scanned.
func BuildAchievementsDataset(steamID string, generatedAt time.Time, totalGames int, progress []GameAchievementProgress) AchievementsDataset {
	summary := AchievementSummary{TotalGames: totalGames}
	perfect := []GameAchievementProgress{}
	inProgress := []GameAchievementProgress{}

	for _, p := range progress {
		if p.Total == 0 {
			continue
		}
		summary.GamesWithAchievements++
		summary.TotalAchievements += p.Total
		summary.TotalUnlocked += p.Unlocked
		if p.Unlocked == p.Total {
			perfect = append(perfect, p)
		} else if p.Unlocked > 0 {
			inProgress = append(inProgress, p)
		}
	}
	summary.PerfectGamesCount = len(perfect)
	if summary.TotalAchievements > 0 {
		summary.CompletionPercentage = math.Round(float64(summary.TotalUnlocked)/float64(summary.TotalAchievements)*100*100) / 100
	}

	sort.SliceStable(inProgress, func(i, j int) bool {
		return inProgress[i].Completion > inProgress[j].Completion
	})
	if len(perfect) > perfectGamesLimit {
		perfect = perfect[:perfectGamesLimit]
	}
	if len(inProgress) > gamesWithProgressLimit {
		inProgress = inProgress[:gamesWithProgressLimit]
	}

	return AchievementsDataset{
		SteamID:           steamID,
		GeneratedAt:       generatedAt,
		Summary:           summary,
		PerfectGames:      perfect,
		GamesWithProgress: inProgress,
	}
}

// WriteAchievements saves the achievements dataset for a player.
func (w *Writer) WriteAchievements(dataset AchievementsDataset) error {
	return w.saveJSON(dataset, fmt.Sprintf("achievements_%s.json", dataset.SteamID))
}

// CleanNewsContents strips the markup that Steam news feeds embed in
// their body text, leaving plain text for the frontend to render. An
// item that fails to parse is passed through untouched.
func CleanNewsContents(items []steam.NewsItem) []steam.NewsItem {
	cleaned := make([]steam.NewsItem, len(items))
	for i, item := range items {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(item.Contents))
		if err != nil {
			slog.Warn("Failed to parse news contents", slog.String("gid", item.GID))
			cleaned[i] = item
			continue
		}
		item.Contents = strings.Join(strings.Fields(doc.Text()), " ")
		cleaned[i] = item
	}
	return cleaned
}
