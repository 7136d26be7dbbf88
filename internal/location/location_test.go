package location

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/shared"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestStaticSource(t *testing.T) {
	src := StaticSource{{Latitude: 1, Longitude: 2}, {Latitude: 3, Longitude: 4}}

	got, err := Collect(context.Background(), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[1].Latitude != 3 {
		t.Errorf("unexpected positions: %v", got)
	}

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		positions, errc := src.Positions(ctx)
		<-positions
		cancel()
		for range positions {
		}
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("expected nil or context.Canceled, got %v", err)
		}
	})
}

func TestFileSource(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
		wantErr string
	}{
		{
			name:    "header and comments",
			content: "latitude,longitude\n# walk east\n14.5995,120.9842\n\n14.6005, 120.9865\n",
			want:    2,
		},
		{
			name:    "no header with extra column",
			content: "14.5995,120.9842,2025-01-01T00:00:00Z\n",
			want:    1,
		},
		{
			name:    "NaN is a position",
			content: "NaN,120.9842\n",
			want:    1,
		},
		{
			name:    "malformed line reports its number",
			content: "lat,lon\n14.5995,120.9842\n# note\nfourteen,120.98\n",
			want:    1,
			wantErr: "line 4",
		},
		{
			name:    "single field",
			content: "14.5995\n",
			wantErr: "line 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "track.csv", tt.content)

			got, err := Collect(context.Background(), FileSource{Path: path})
			if tt.wantErr != "" {
				if !errors.Is(err, ErrMalformedPosition) {
					t.Fatalf("expected ErrMalformedPosition, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected %q in error, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("expected %d positions, got %d", tt.want, len(got))
			}
		})
	}

	t.Run("NaN value", func(t *testing.T) {
		got, err := Collect(context.Background(), FileSource{Path: writeFile(t, "nan.csv", "NaN,1\n")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !math.IsNaN(got[0].Latitude) {
			t.Errorf("expected NaN latitude, got %v", got[0].Latitude)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := Collect(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "none.csv")}); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestLoadRegions(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "regions.toml",
			content: `[[regions]]
id = "home"
title = "Home"
latitude = 1.5
longitude = 2.5
radius_meters = 50
`,
		},
		{
			name: "toml config layout",
			file: "config.toml",
			content: `[[geofence.regions]]
id = "home"
title = "Home"
latitude = 1.5
longitude = 2.5
radius_meters = 50
`,
		},
		{
			name: "yaml",
			file: "regions.yaml",
			content: `regions:
  - id: home
    title: Home
    latitude: 1.5
    longitude: 2.5
    radius_meters: 50
`,
		},
		{
			name:    "json object",
			file:    "regions.json",
			content: `{"regions":[{"id":"home","title":"Home","latitude":1.5,"longitude":2.5,"radius_meters":50}]}`,
		},
		{
			name:    "json array",
			file:    "regions.json",
			content: `[{"id":"home","title":"Home","latitude":1.5,"longitude":2.5,"radius_meters":50}]`,
		},
	}

	want := geofence.Region{ID: "home", Title: "Home", Center: geofence.Coordinate{Latitude: 1.5, Longitude: 2.5}, RadiusMeters: 50}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			regions, err := LoadRegions(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(regions) != 1 || regions[0] != want {
				t.Errorf("expected %+v, got %+v", want, regions)
			}
		})
	}

	t.Run("unsupported extension", func(t *testing.T) {
		if _, err := LoadRegions(writeFile(t, "regions.ini", "x")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := LoadRegions(writeFile(t, "regions.yaml", "regions: []\n")); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("invalid syntax", func(t *testing.T) {
		if _, err := LoadRegions(writeFile(t, "regions.json", "{")); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSampleRegions(t *testing.T) {
	regions := SampleRegions()
	if _, err := geofence.NewEngine(regions); err != nil {
		t.Fatalf("sample regions should build an engine: %v", err)
	}

	cfg := shared.DefaultConfig().Regions()
	if len(cfg) != len(regions) {
		t.Fatalf("default config has %d regions, samples have %d", len(cfg), len(regions))
	}
	for i := range regions {
		if cfg[i] != regions[i] {
			t.Errorf("region %d: config %+v differs from sample %+v", i, cfg[i], regions[i])
		}
	}
}
