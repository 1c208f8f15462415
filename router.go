package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	hmacext "github.com/alexellis/hmac/v2"
	"github.com/rs/cors"

	"github.com/steamboard/steamboard/artwork"
	"github.com/steamboard/steamboard/config"
	"github.com/steamboard/steamboard/datasets"
	"github.com/steamboard/steamboard/events"
	"github.com/steamboard/steamboard/snapshots"
	"github.com/steamboard/steamboard/stats"
	"github.com/steamboard/steamboard/themes"
)

// defaultTopCount is how many games the dashboard shows by default.
const defaultTopCount = 4

type themedGame struct {
	datasets.TopGame
	Theme themes.Theme `json:"theme"`
}

type themedGamesResponse struct {
	Theme themes.Theme `json:"theme"`
	Games []themedGame `json:"games"`
}

func renderJSONMessage(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	res := map[string]string{"message": message}
	json.NewEncoder(w).Encode(res)
}

// coverArtByApp maps stored per-game artwork by app id so leaderboard
// entries can pick up their dominant colours.
func coverArtByApp(system *snapshots.System, snapshotID string) map[int]artwork.Art {
	games, err := system.GetGames(snapshotID)
	if err != nil {
		slog.With(slog.Any("error", err)).Error("Failed to load stored games for artwork")
		return nil
	}
	art := make(map[int]artwork.Art, len(games))
	for _, game := range games {
		if game.CoverLocation == "" && len(game.DominantColours) == 0 {
			continue
		}
		art[game.AppID] = artwork.Art{
			CoverLocation:   game.CoverLocation,
			DominantColours: game.DominantColours,
		}
	}
	return art
}

func RegisterRoutes(mux *http.ServeMux, cfg config.Config, system *snapshots.System, refresh func() error) http.Handler {

	events.Server.CreateStream("snapshots")

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "Welcome to Steamboard, a little API for my Steam profile dashboard.\nYou can find the source code on <a href=\"https://github.com/steamboard/steamboard\">Github</a>\n")
	})

	mux.HandleFunc("/static/", func(w http.ResponseWriter, r *http.Request) {
		cover := strings.ReplaceAll(r.URL.Path, "/static/", "")
		// cover.<guid>.jpeg on disk, same shape in the URL
		coverSegments := strings.Split(cover, ".")
		if len(coverSegments) != 3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		filename := fmt.Sprintf("%s.%s", coverSegments[0], coverSegments[1])
		extension := coverSegments[2]
		image, err := artwork.LoadCover(cfg.Steamboard.StorageDir, filename, extension)
		if err != nil {
			w.WriteHeader(http.StatusGone)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31622400")
		w.Header().Set("Content-Type", fmt.Sprintf("image/%s", extension))
		w.Write([]byte(image))
	})

	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		renderJSONMessage(w, "This is the base of Steamboard's API")
	})

	mux.HandleFunc("/api/v1", func(w http.ResponseWriter, r *http.Request) {
		renderJSONMessage(w, "This is the v1 endpoint of the API")
	})

	mux.HandleFunc("/api/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		prof, err := system.LatestProfile()
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": "no profile snapshot has been generated yet"})
			return
		}
		json.NewEncoder(w).Encode(prof)
	})

	mux.HandleFunc("/api/v1/games/top", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		count := defaultTopCount
		if v := r.URL.Query().Get("count"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				json.NewEncoder(w).Encode(map[string]string{"error": "count must be a number"})
				return
			}
			count = parsed
		}
		latest, err := system.GetLatest()
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": "no profile snapshot has been generated yet"})
			return
		}
		prof, err := system.LatestProfile()
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": "no profile snapshot has been generated yet"})
			return
		}
		art := coverArtByApp(system, latest.ID)
		json.NewEncoder(w).Encode(datasets.BuildTopGames(prof.OwnedGames.Games, count, art))
	})

	mux.HandleFunc("/api/v1/games/themed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		latest, err := system.GetLatest()
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": "no profile snapshot has been generated yet"})
			return
		}
		prof, err := system.LatestProfile()
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": "no profile snapshot has been generated yet"})
			return
		}
		art := coverArtByApp(system, latest.ID)
		games := make([]themedGame, 0, defaultTopCount)
		for _, game := range datasets.BuildTopGames(prof.OwnedGames.Games, defaultTopCount, art) {
			games = append(games, themedGame{TopGame: game, Theme: themes.Resolve(game.Name)})
		}
		// The whole dashboard takes its look from whatever sits at the
		// top of the leaderboard
		theme := themes.Default
		if len(games) > 0 {
			theme = games[0].Theme
		}
		json.NewEncoder(w).Encode(themedGamesResponse{Theme: theme, Games: games})
	})

	mux.HandleFunc("/api/v1/spending", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		prof, err := system.LatestProfile()
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": "no profile snapshot has been generated yet"})
			return
		}
		estimate := stats.NewDefaultEstimator().Estimate(prof)
		json.NewEncoder(w).Encode(estimate)
	})

	mux.HandleFunc("/api/v1/history", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		results, err := system.GetHistory(7)
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		if len(results) == 0 {
			json.NewEncoder(w).Encode([]string{})
			return
		}
		json.NewEncoder(w).Encode(results)
	})

	mux.HandleFunc("/api/v1/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method != http.MethodPost {
			renderJSONMessage(w, "That method is invalid for this endpoint")
			return
		}

		if cfg.Steamboard.RefreshSecret == "" {
			json.NewEncoder(w).Encode(map[string]string{"error": "this endpoint is not properly configured"})
			return
		}

		signature := r.Header.Get("X-Steamboard-Signature")
		if signature == "" {
			json.NewEncoder(w).Encode(map[string]string{"error": "no signature was provided"})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			json.NewEncoder(w).Encode(map[string]string{"error": "failed to read request body as part of signature validation"})
			return
		}

		if err := hmacext.Validate(body, fmt.Sprintf("sha256=%s", signature), cfg.Steamboard.RefreshSecret); err != nil {
			slog.With(slog.Any("error", err)).Error("Failed signature validation")
			json.NewEncoder(w).Encode(map[string]string{"error": "signature failed validation"})
			return
		}

		go func() {
			if err := refresh(); err != nil {
				slog.With(slog.Any("error", err)).Error("Manual refresh failed")
			}
		}()

		renderJSONMessage(w, "A profile refresh has been scheduled")
	})

	mux.HandleFunc("/events", events.Server.ServeHTTP)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"https://steamboard.app", "http://localhost:1313", "http://localhost:8080"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Origin, Content-Type, Accept"},
	})

	handler := c.Handler(mux)

	return handler
}
