package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/steamboard/steamboard/config"
	"github.com/steamboard/steamboard/datasets"
	"github.com/steamboard/steamboard/db"
	"github.com/steamboard/steamboard/events"
	"github.com/steamboard/steamboard/migrations"
	"github.com/steamboard/steamboard/snapshots"
	"github.com/steamboard/steamboard/steam"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
	}))
	slog.SetDefault(logger)

	if cfg.Steam.APIKey == "" || cfg.Steam.SteamID == "" {
		slog.Error("STEAM_API_KEY and STEAM_ID must be set")
		os.Exit(1)
	}

	if cfg.Steamboard.DbPath == "" {
		cfg.Steamboard.DbPath = "steamboard.db"
	}
	if cfg.Steamboard.DatasetDir == "" {
		cfg.Steamboard.DatasetDir = "public/data"
	}
	if cfg.Steamboard.StorageDir == "" {
		cfg.Steamboard.StorageDir = "storage"
	}
	if cfg.Steamboard.Port == "" {
		cfg.Steamboard.Port = "8080"
	}

	database, err := db.Initialize(cfg.Steamboard.DbPath)
	if err != nil {
		slog.With(slog.Any("error", err)).Error("Failed to connect to database")
		os.Exit(1)
	}

	if err := db.ApplyMigrations(database, migrations.GetMigrations()); err != nil {
		slog.With(slog.Any("error", err)).Error("Failed to apply migrations")
		os.Exit(1)
	}

	events.Init()

	system := snapshots.NewSystem(database)

	// If we're redeployed, we'll populate the latest state
	if err := system.RefreshLatest(); err != nil {
		slog.With(slog.Any("error", err)).Error("Failed to load latest snapshot")
		os.Exit(1)
	}

	writer, err := datasets.NewWriter(cfg.Steamboard.DatasetDir)
	if err != nil {
		slog.With(slog.Any("error", err)).Error("Failed to create dataset directory")
		os.Exit(1)
	}

	client := steam.NewClient(cfg.Steam.APIKey)

	scheduler, err := SetupInBackground(cfg, client, system, writer)
	if err != nil {
		slog.With(slog.Any("error", err)).Error("Failed to create job scheduler")
		os.Exit(1)
	}

	if cfg.Steamboard.BackgroundJobsEnabled {
		scheduler.Start()
		slog.Info("Background jobs have started up in the background.")
	} else {
		slog.Info("Background jobs are disabled.")
	}

	refresh := func() error {
		return RefreshSnapshot(cfg, client, system, writer)
	}

	router := RegisterRoutes(http.NewServeMux(), cfg, system, refresh)

	slog.Info(fmt.Sprintf("Steamboard is running at http://localhost:%s", cfg.Steamboard.Port))

	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Steamboard.Port), router); err != nil {
		slog.With(slog.Any("error", err)).Error("Server stopped unexpectedly")
		_ = scheduler.Shutdown()
		os.Exit(1)
	}
}
