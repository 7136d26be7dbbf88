package location

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/desertthunder/soundfence/internal/geofence"
	"github.com/desertthunder/soundfence/internal/shared"
)

// regionFile accepts both a top-level "regions" list and the config's [geofence] table.
type regionFile struct {
	Regions  []shared.RegionConfig `toml:"regions" yaml:"regions" json:"regions"`
	Geofence struct {
		Regions []shared.RegionConfig `toml:"regions" yaml:"regions" json:"regions"`
	} `toml:"geofence" yaml:"geofence" json:"geofence"`
}

func (f regionFile) entries() []shared.RegionConfig {
	if len(f.Regions) > 0 {
		return f.Regions
	}
	return f.Geofence.Regions
}

// LoadRegions reads a region set from a .toml, .yaml/.yml or .json file.
//
// JSON files may also be a bare array of regions. Radius defaulting and validation happen in [geofence.NewEngine].
func LoadRegions(path string) ([]geofence.Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regions file: %w", err)
	}

	var file regionFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".json":
		if trimmed := strings.TrimSpace(string(data)); strings.HasPrefix(trimmed, "[") {
			err = json.Unmarshal(data, &file.Regions)
		} else {
			err = json.Unmarshal(data, &file)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported regions file extension %q", shared.ErrInvalidArgument, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s: %v", shared.ErrInvalidConfig, path, err)
	}

	entries := file.entries()
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no regions in %s", shared.ErrInvalidConfig, path)
	}

	regions := make([]geofence.Region, len(entries))
	for i, rc := range entries {
		regions[i] = rc.Region()
	}
	return regions, nil
}

// SampleRegions returns the three built-in points of interest in Manila.
func SampleRegions() []geofence.Region {
	return []geofence.Region{
		{ID: "poi1", Title: "Clocktower Plaza", Center: geofence.Coordinate{Latitude: 14.5995, Longitude: 120.9842}, RadiusMeters: 100},
		{ID: "poi2", Title: "Riverside Checkpoint", Center: geofence.Coordinate{Latitude: 14.6005, Longitude: 120.9865}, RadiusMeters: 100},
		{ID: "poi3", Title: "Heritage Gate", Center: geofence.Coordinate{Latitude: 14.5982, Longitude: 120.9820}, RadiusMeters: 100},
	}
}
