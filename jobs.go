package main

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gregdel/pushover"

	"github.com/steamboard/steamboard/artwork"
	"github.com/steamboard/steamboard/config"
	"github.com/steamboard/steamboard/datasets"
	"github.com/steamboard/steamboard/profile"
	"github.com/steamboard/steamboard/snapshots"
	"github.com/steamboard/steamboard/stats"
	"github.com/steamboard/steamboard/steam"
	"github.com/steamboard/steamboard/utils"
)

const (
	newsItemCount        = 5
	newsMaxLength        = 300
	achievementScanLimit = 50
	defaultRefreshGap    = 24 * time.Hour
)

func notifyFailure(cfg config.Config, title string, err error) {
	slog.With(slog.Any("error", err)).Error(title)
	if cfg.Pushover.Token == "" || cfg.Pushover.Recipient == "" {
		return
	}
	app := pushover.New(cfg.Pushover.Token)
	recipient := pushover.NewRecipient(cfg.Pushover.Recipient)
	message := &pushover.Message{
		Message:    err.Error(),
		Title:      title,
		Priority:   pushover.PriorityNormal,
		Timestamp:  time.Now().Unix(),
		DeviceName: "Steamboard",
	}
	if _, err := app.SendMessage(message, recipient); err != nil {
		slog.With(slog.Any("error", err)).Error("Failed to send Pushover notification")
	}
}

// fetchTopGameArtwork pulls header images for the games the dashboard
// will surface. A game without artwork is not worth failing a whole
// refresh over so errors only drop that one entry.
func fetchTopGameArtwork(cfg config.Config, games []profile.GameRecord) map[int]artwork.Art {
	client := utils.NewHTTPClient()
	art := make(map[int]artwork.Art)
	for _, game := range stats.SelectTop(games, defaultTopCount) {
		image, extension, colours, err := artwork.ExtractImageContent(client, artwork.HeaderImageURL(game.AppID))
		if err != nil {
			slog.With(slog.Any("error", err), slog.Int("appId", game.AppID)).Warn("Failed to fetch cover art")
			continue
		}
		location, guid := artwork.BytesToGUIDLocation(image, extension)
		if err := artwork.SaveCover(cfg.Steamboard.StorageDir, guid, image, extension); err != nil {
			slog.With(slog.Any("error", err), slog.Int("appId", game.AppID)).Warn("Failed to save cover art")
			continue
		}
		art[game.AppID] = artwork.Art{
			CoverLocation:   location,
			DominantColours: colours,
		}
	}
	return art
}

func convertBadges(b steam.Badges) profile.Badges {
	badges := make([]profile.Badge, 0, len(b.Badges))
	for _, badge := range b.Badges {
		badges = append(badges, profile.Badge{
			BadgeID:        badge.BadgeID,
			Level:          badge.Level,
			CompletionTime: badge.CompletionTime,
			XP:             badge.XP,
			Scarcity:       badge.Scarcity,
		})
	}
	return profile.Badges{
		Badges:      badges,
		PlayerXP:    b.PlayerXP,
		PlayerLevel: b.PlayerLevel,
		XPToLevelUp: b.XPToLevelUp,
	}
}

// scanAchievementProgress walks the most played games and collects each
// one's unlock state. Games without an achievement schema come back as
// an error or success=false from Steam and are skipped either way.
func scanAchievementProgress(client *steam.Client, steamID string, games []profile.GameRecord) []datasets.GameAchievementProgress {
	var progress []datasets.GameAchievementProgress
	for _, game := range stats.SelectTop(games, achievementScanLimit) {
		state, err := client.GetPlayerAchievements(steamID, game.AppID)
		if err != nil || !state.Success {
			continue
		}
		total := len(state.Achievements)
		if total == 0 {
			continue
		}
		unlocked := 0
		for _, a := range state.Achievements {
			if a.Achieved == 1 {
				unlocked++
			}
		}
		progress = append(progress, datasets.GameAchievementProgress{
			AppID:      game.AppID,
			Name:       game.Name,
			Total:      total,
			Unlocked:   unlocked,
			Completion: math.Round(float64(unlocked)/float64(total)*100*100) / 100,
		})
	}
	return progress
}

// writeGameStatsDatasets generates the per-game statistics file for the
// most played games. Steam's per-app endpoints flake fairly often so a
// failed call just zeroes that section rather than aborting.
func writeGameStatsDatasets(client *steam.Client, writer *datasets.Writer, games []profile.GameRecord) error {
	generatedAt := time.Now().UTC()
	var allStats []datasets.GameStats
	for _, game := range stats.SelectTop(games, defaultTopCount) {
		gameStats := datasets.GameStats{
			AppID:       game.AppID,
			AppName:     game.Name,
			GeneratedAt: generatedAt,
		}
		players, err := client.GetNumberOfCurrentPlayers(game.AppID)
		if err != nil {
			slog.With(slog.Any("error", err), slog.Int("appId", game.AppID)).Warn("Failed to fetch current players")
		} else {
			gameStats.CurrentPlayers = players
		}
		achievements, err := client.GetGlobalAchievementPercentages(game.AppID)
		if err != nil {
			slog.With(slog.Any("error", err), slog.Int("appId", game.AppID)).Warn("Failed to fetch achievement percentages")
		} else {
			gameStats.AchievementPercentages = achievements
		}
		news, err := client.GetNewsForApp(game.AppID, newsItemCount, newsMaxLength)
		if err != nil {
			slog.With(slog.Any("error", err), slog.Int("appId", game.AppID)).Warn("Failed to fetch news")
		} else {
			gameStats.News = datasets.CleanNewsContents(news)
		}
		allStats = append(allStats, gameStats)
	}
	return writer.WriteGameStats(allStats)
}

// RefreshSnapshot fetches a fresh view of the configured Steam profile,
// records it as the latest snapshot and regenerates the static datasets.
func RefreshSnapshot(cfg config.Config, client *steam.Client, system *snapshots.System, writer *datasets.Writer) error {
	steamID := cfg.Steam.SteamID

	slog.With(slog.String("steamId", steamID)).Info("Refreshing profile snapshot")

	player, err := client.GetPlayerSummary(steamID)
	if err != nil {
		return fmt.Errorf("failed to fetch player summary: %w", err)
	}

	owned, err := client.GetOwnedGames(steamID)
	if err != nil {
		return fmt.Errorf("failed to fetch owned games: %w", err)
	}

	recent, err := client.GetRecentlyPlayed(steamID)
	if err != nil {
		return fmt.Errorf("failed to fetch recently played games: %w", err)
	}

	// The level and badges are decorative so a failure here shouldn't
	// sink the run
	level, err := client.GetSteamLevel(steamID)
	if err != nil {
		slog.With(slog.Any("error", err)).Warn("Failed to fetch Steam level")
	}

	badges, err := client.GetBadges(steamID)
	if err != nil {
		slog.With(slog.Any("error", err)).Warn("Failed to fetch badges")
	}

	games := make([]profile.GameRecord, 0, len(owned.Games))
	for _, game := range owned.Games {
		games = append(games, profile.GameRecord{
			AppID:           game.AppID,
			Name:            game.Name,
			PlaytimeMinutes: game.PlaytimeForever,
			Playtime2Weeks:  game.Playtime2Weeks,
			IconURL:         game.ImgIconURL,
		})
	}

	snap := profile.Snapshot{
		SteamID:     steamID,
		GeneratedAt: time.Now().UTC(),
		PlayerSummary: profile.PlayerSummary{
			SteamID:     player.SteamID,
			PersonaName: player.PersonaName,
			TimeCreated: player.TimeCreated,
			Avatar:      player.Avatar,
			ProfileURL:  player.ProfileURL,
		},
		OwnedGames: profile.OwnedGames{
			GameCount: owned.GameCount,
			Games:     games,
		},
		RecentlyPlayed: recent.TotalCount,
		SteamLevel:     level,
		Badges:         convertBadges(badges),
	}
	snap.Stats = snap.ComputeStats()

	progress := scanAchievementProgress(client, steamID, snap.OwnedGames.Games)
	achievements := datasets.BuildAchievementsDataset(steamID, snap.GeneratedAt, snap.OwnedGames.GameCount, progress)
	snap.Stats.TotalAchievements = achievements.Summary.TotalAchievements
	snap.Stats.UnlockedAchievements = achievements.Summary.TotalUnlocked
	snap.Stats.AchievementCompletion = achievements.Summary.CompletionPercentage
	snap.Stats.PerfectGames = achievements.Summary.PerfectGamesCount

	if err := snap.Validate(); err != nil {
		return fmt.Errorf("refusing to record malformed snapshot: %w", err)
	}

	art := fetchTopGameArtwork(cfg, snap.OwnedGames.Games)

	if err := system.RecordSnapshot(snap, art); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	if err := writer.WriteProfile(snap); err != nil {
		return err
	}
	if err := writer.WriteTopGames(snap, art); err != nil {
		return err
	}
	if err := writer.WriteAchievements(achievements); err != nil {
		return err
	}
	if err := writeGameStatsDatasets(client, writer, snap.OwnedGames.Games); err != nil {
		return err
	}

	slog.With(
		slog.String("steamId", steamID),
		slog.Int("gameCount", snap.OwnedGames.GameCount),
	).Info("Recorded profile snapshot")

	return nil
}

func SetupInBackground(cfg config.Config, client *steam.Client, system *snapshots.System, writer *datasets.Writer) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	interval := defaultRefreshGap
	if cfg.Steamboard.RefreshIntervalHours > 0 {
		interval = time.Duration(cfg.Steamboard.RefreshIntervalHours) * time.Hour
	}

	refresh := func() {
		if err := RefreshSnapshot(cfg, client, system, writer); err != nil {
			notifyFailure(cfg, "Steamboard failed to refresh profile snapshot", err)
		}
	}

	s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(refresh),
	)

	// If we're freshly deployed there's nothing to serve until the
	// first scheduled run, so kick one off right away
	if system.Latest == nil {
		go refresh()
	}

	return s, nil
}
