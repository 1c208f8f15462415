package config

import (
	"log/slog"
	"os"
	"strings"

	"github.com/golobby/config/v3"
	"github.com/golobby/config/v3/pkg/feeder"
)

type Config struct {
	Steamboard SteamboardConfig
	Steam      SteamConfig
	Pushover   PushoverConfig
}

type SteamboardConfig struct {
	BackgroundJobsEnabled bool   `env:"BACKGROUND_JOBS_ENABLED"`
	DbPath                string `env:"DB_PATH"`
	DatasetDir            string `env:"DATASET_DIR"`
	LogLevel              string `env:"LOG_LEVEL"`
	Port                  string `env:"PORT"`
	RefreshIntervalHours  int    `env:"REFRESH_INTERVAL_HOURS"`
	RefreshSecret         string `env:"REFRESH_SECRET"`
	StorageDir            string `env:"STORAGE_DIR"`
}

type SteamConfig struct {
	APIKey  string `env:"STEAM_API_KEY"`
	SteamID string `env:"STEAM_ID"`
}

type PushoverConfig struct {
	Recipient string `env:"PUSHOVER_RECIPIENT"`
	Token     string `env:"PUSHOVER_TOKEN"`
}

func Load() (Config, error) {
	c := Config{}
	loader := config.New()
	if _, err := os.Stat(".env"); err == nil {
		loader.AddFeeder(feeder.DotEnv{Path: ".env"})
	}
	loader.AddFeeder(feeder.Env{})
	loader.AddStruct(&c)
	if err := loader.Feed(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) GetLogLevel() slog.Leveler {
	logLevel := strings.ToLower(c.Steamboard.LogLevel)
	if logLevel == "error" {
		return slog.LevelError
	}
	if logLevel == "warning" {
		return slog.LevelWarn
	}
	if logLevel == "info" {
		return slog.LevelInfo
	}
	if logLevel == "debug" {
		return slog.LevelDebug
	}
	// default to info if unknown
	slog.With(slog.String("log_level", logLevel)).Info("Received invalid log level. Defaulting to INFO.")
	return slog.LevelInfo
}
