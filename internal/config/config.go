// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "10s" round-trip.
type Duration time.Duration

// MarshalYAML renders the duration in time.Duration string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML parses "10s" style duration strings.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics"`
	Imagery  ImageryConfig  `yaml:"imagery"`
	Planet   PlanetConfig   `yaml:"planet"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	FOVDegrees float64 `yaml:"fov_degrees"` // Vertical field of view
}

// ImageryConfig holds tile source and streaming settings.
type ImageryConfig struct {
	BaseURL      string   `yaml:"base_url"`      // Tile source root; trailing slash stripped
	Extension    string   `yaml:"extension"`     // Image file extension; leading dot stripped
	MinLevel     int      `yaml:"min_level"`     // Quadtree level of the eagerly created root grid
	MaxLevel     int      `yaml:"max_level"`     // Deepest quadtree level
	CacheTiles   int      `yaml:"cache_tiles"`   // Texture cache capacity in entries
	Concurrency  int      `yaml:"concurrency"`   // Max simultaneous tile fetches
	FetchTimeout Duration `yaml:"fetch_timeout"` // Per-request timeout
}

// PlanetConfig holds the rendered body's parameters.
type PlanetConfig struct {
	Radius     float64 `yaml:"radius"`     // Sphere radius in scene units (km)
	Segments   int     `yaml:"segments"`   // Mesh resolution per tile edge
	Anisotropy float64 `yaml:"anisotropy"` // Texture filtering hint
}

// MetricsConfig holds the Prometheus exposition settings. An empty
// listen address disables the endpoint.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
// The imagery source defaults to the NASA Trek Mars Viking global mosaic.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FOVDegrees: 60,
		},
		Imagery: ImageryConfig{
			BaseURL:      "https://trek.nasa.gov/tiles/Mars/EQ/Mars_Viking_MDIM21_ClrMosaic_global_232m/1.0.0/default/default028mm",
			Extension:    "jpg",
			MinLevel:     0,
			MaxLevel:     6,
			CacheTiles:   64,
			Concurrency:  6,
			FetchTimeout: Duration(10 * time.Second),
		},
		Planet: PlanetConfig{
			Radius:     3396.2, // Mars equatorial radius, km
			Segments:   16,
			Anisotropy: 8,
		},
		Metrics: MetricsConfig{
			ListenAddr: "",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Normalize cleans up user-supplied values: trailing slash on the base URL
// and leading dot on the extension are both accepted and stripped.
func (c *Config) Normalize() {
	c.Imagery.BaseURL = strings.TrimRight(c.Imagery.BaseURL, "/")
	c.Imagery.Extension = strings.TrimPrefix(c.Imagery.Extension, ".")
	if c.Imagery.MinLevel > c.Imagery.MaxLevel {
		c.Imagery.MinLevel = c.Imagery.MaxLevel
	}
}
