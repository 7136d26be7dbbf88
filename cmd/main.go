package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/soundfence/internal/catalog"
	"github.com/desertthunder/soundfence/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("SOUNDFENCE_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config, err := shared.LoadConfigOrDefault(configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		config = shared.DefaultConfig()
	}

	if level, err := shared.ParseLogLevel(config.Log.Level); err != nil {
		logger.Warn("ignoring log level", "error", err)
	} else {
		shared.SetLogLevel(logger, level)
	}

	var provider catalog.Provider = catalog.NewStaticProvider()
	if spotify := config.Credentials.Spotify; spotify.ClientID != "" && spotify.ClientSecret != "" {
		if svc, err := catalog.NewSpotifyProvider(spotify); err == nil {
			provider = svc
		} else {
			logger.Warn("spotify catalog unavailable, using built-in library", "error", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Provider:   provider,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "soundfence",
		Usage:    "Geofence transitions and playlists for a location-aware music app",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err = app.Run(context.Background(), os.Args)
	if cerr := runner.Close(); cerr != nil {
		logger.Warn("failed to close database", "error", cerr)
	}

	if err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
