// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/user/camsync/pkg/orchestrator"
	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid value")

// Config represents the full configuration for camsync.
type Config struct {
	// Input/Output
	Input          string   `yaml:"input"`
	Output         string   `yaml:"output"`
	Extensions     []string `yaml:"extensions"`
	ImageSequences bool     `yaml:"image_sequences"`
	// SequenceFPS is the nominal rate of image-sequence streams, 0 if unknown.
	SequenceFPS float64 `yaml:"sequence_fps"`

	// Frames
	ImageFormat string `yaml:"image_format"`
	JPEGQuality int    `yaml:"jpeg_quality"`
	Scale       int    `yaml:"scale"` // max frame width, 0 keeps the original

	// Extra outputs
	Mosaic  MosaicConfig `yaml:"mosaic"`
	Catalog string       `yaml:"catalog"` // sqlite path, empty disables
	Summary string       `yaml:"summary"` // markdown path, empty disables

	// Synchronization
	Sequential bool `yaml:"sequential"`
	Realtime   bool `yaml:"realtime"`

	// Decoding
	FFmpegPath string `yaml:"ffmpeg_path"`
	Workers    int    `yaml:"workers"`

	// Observability
	Log         LogConfig `yaml:"log"`
	MetricsAddr string    `yaml:"metrics_addr"`
}

// MosaicConfig controls the tiled per-batch overview image.
type MosaicConfig struct {
	Enabled   bool `yaml:"enabled"`
	Columns   int  `yaml:"columns"`
	TileWidth int  `yaml:"tile_width"`
}

// LogConfig controls console verbosity and the optional rotated log file.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Output:     "output",
		Extensions: pipeline.DefaultDiscoverInput().Extensions,

		ImageFormat: "png",
		JPEGQuality: 90,

		Mosaic: MosaicConfig{
			TileWidth: 320,
		},

		Workers: 4,

		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs *multierror.Error
	fail := func(format string, args ...interface{}) {
		errs = multierror.Append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if c.Input == "" {
		fail("input is required")
	}
	if c.Output == "" {
		fail("output is required")
	}
	if len(c.Extensions) == 0 && !c.ImageSequences {
		fail("extensions is empty and image_sequences is off")
	}
	for _, ext := range c.Extensions {
		if ext == "" || ext == "." {
			fail("empty extension")
		}
	}
	switch strings.ToLower(c.ImageFormat) {
	case "png", "jpeg", "jpg":
	default:
		fail("image_format %q (png or jpeg)", c.ImageFormat)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		fail("jpeg_quality %d (1-100)", c.JPEGQuality)
	}
	if c.Scale < 0 {
		fail("scale %d", c.Scale)
	}
	if c.SequenceFPS < 0 {
		fail("sequence_fps %g", c.SequenceFPS)
	}
	if c.Mosaic.Enabled && (c.Mosaic.Columns < 0 || c.Mosaic.TileWidth <= 0) {
		fail("mosaic columns %d, tile_width %d", c.Mosaic.Columns, c.Mosaic.TileWidth)
	}
	if c.Workers < 1 {
		fail("workers %d", c.Workers)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error", "quiet":
	default:
		fail("log level %q", c.Log.Level)
	}

	return errs.ErrorOrNil()
}

// Format returns the frame image format.
func (c Config) Format() ports.ImageFormat {
	return ports.ParseImageFormat(c.ImageFormat)
}

// LogLevel returns the console log level.
func (c Config) LogLevel() ports.LogLevel {
	return ports.ParseLogLevel(c.Log.Level)
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() orchestrator.Config {
	return orchestrator.Config{
		Input: pipeline.DiscoverInput{
			Root:           c.Input,
			Extensions:     c.Extensions,
			ImageSequences: c.ImageSequences,
		},
		Sequential: c.Sequential,
		Realtime:   c.Realtime,
	}
}
