package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./soundfence.db" {
			t.Errorf("expected database path ./soundfence.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "127.0.0.1:3000" {
			t.Errorf("expected server addr 127.0.0.1:3000, got %s", config.Server.Addr())
		}

		if config.Redis.Enabled() {
			t.Error("redis should be disabled by default")
		}

		if config.Watch.DistanceIntervalMeters != 5 {
			t.Errorf("expected distance interval 5, got %v", config.Watch.DistanceIntervalMeters)
		}

		regions := config.Regions()
		if len(regions) != 3 {
			t.Fatalf("expected 3 default regions, got %d", len(regions))
		}
		if regions[0].ID != "poi1" || regions[0].Title != "Clocktower Plaza" {
			t.Errorf("unexpected first region: %+v", regions[0])
		}
		if regions[2].Center.Latitude != 14.5982 || regions[2].Center.Longitude != 120.9820 {
			t.Errorf("unexpected Heritage Gate center: %v", regions[2].Center)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"

[server]
host = "0.0.0.0"
port = 8080

[redis]
addr = "localhost:6379"
channel = "fence"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
user_id = "listener"

[[geofence.regions]]
id = "home"
title = "Home"
latitude = 1.5
longitude = 2.5
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Addr() != "0.0.0.0:8080" {
			t.Errorf("expected addr 0.0.0.0:8080, got %s", config.Server.Addr())
		}
		if !config.Redis.Enabled() || config.Redis.Channel != "fence" {
			t.Errorf("unexpected redis config: %+v", config.Redis)
		}
		if config.Credentials.Spotify.UserID != "listener" {
			t.Errorf("expected spotify user_id listener, got %s", config.Credentials.Spotify.UserID)
		}

		regions := config.Regions()
		if len(regions) != 1 {
			t.Fatalf("expected 1 region, got %d", len(regions))
		}
		if regions[0].RadiusMeters != 0 {
			t.Errorf("omitted radius should stay zero until the engine defaults it, got %v", regions[0].RadiusMeters)
		}
	})

	t.Run("LoadConfig Invalid", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[database\npath ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfigOrDefault Missing", func(t *testing.T) {
		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(config.Geofence.Regions) != 3 {
			t.Errorf("expected default regions, got %d", len(config.Geofence.Regions))
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"", false},
		{"debug", false},
		{" WARN ", false},
		{"error", false},
		{"loud", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseLogLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseLogLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "0:00", 59: "0:59", 61: "1:01", 3600: "60:00", -4: "0:00"}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("FormatDuration(%d) = %q, want %q", in, got, want)
		}
	}
}
