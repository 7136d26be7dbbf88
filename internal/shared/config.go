package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/soundfence/internal/geofence"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Redis       RedisConfig       `toml:"redis"`
	Log         LogConfig         `toml:"log"`
	Theme       ThemeConfig       `toml:"theme"`
	Watch       WatchConfig       `toml:"watch"`
	Geofence    GeofenceConfig    `toml:"geofence"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify client-credentials settings.
//
// UserID selects whose public playlists are listed.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	UserID       string `toml:"user_id"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisConfig configures the transition publisher. An empty Addr disables it.
type RedisConfig struct {
	Addr      string `toml:"addr"`
	Password  string `toml:"password"`
	DB        int    `toml:"db"`
	Channel   string `toml:"channel"`
	KeyPrefix string `toml:"key_prefix"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type LogConfig struct {
	Level string `toml:"level"`
}

type ThemeConfig struct {
	Default string `toml:"default"`
}

// WatchConfig controls how position streams are sampled.
type WatchConfig struct {
	Rate                   float64 `toml:"rate"` // positions per second, 0 = unpaced
	DistanceIntervalMeters float64 `toml:"distance_interval_meters"`
	Buffer                 int     `toml:"buffer"`
}

// GeofenceConfig holds the static region set.
type GeofenceConfig struct {
	Regions []RegionConfig `toml:"regions"`
}

// RegionConfig is the file form of a [geofence.Region].
type RegionConfig struct {
	ID           string  `toml:"id" yaml:"id" json:"id"`
	Title        string  `toml:"title" yaml:"title" json:"title"`
	Latitude     float64 `toml:"latitude" yaml:"latitude" json:"latitude"`
	Longitude    float64 `toml:"longitude" yaml:"longitude" json:"longitude"`
	RadiusMeters float64 `toml:"radius_meters" yaml:"radius_meters" json:"radius_meters"`
}

// Region converts the entry; radius defaulting is left to [geofence.NewEngine].
func (rc RegionConfig) Region() geofence.Region {
	return geofence.Region{
		ID:           rc.ID,
		Title:        rc.Title,
		Center:       geofence.Coordinate{Latitude: rc.Latitude, Longitude: rc.Longitude},
		RadiusMeters: rc.RadiusMeters,
	}
}

// Regions returns the configured regions in file order.
func (c *Config) Regions() []geofence.Region {
	regions := make([]geofence.Region, len(c.Geofence.Regions))
	for i, rc := range c.Geofence.Regions {
		regions[i] = rc.Region()
	}
	return regions
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	return LoadConfig(path)
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
