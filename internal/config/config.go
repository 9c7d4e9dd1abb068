// Package config provides configuration loading for strip-slicer.
// Values come from built-in defaults, an optional YAML file and STRIP_*
// environment variables, in that order of precedence (last wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/rm-hull/strip-slicer/internal/errors"
	"github.com/rm-hull/strip-slicer/internal/raster"
	"github.com/rm-hull/strip-slicer/internal/raster/stage"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	Output struct {
		// Width is the width every tile is resampled to
		Width int `yaml:"width"`

		// Height is the maximum tile height
		Height int `yaml:"height"`

		// Format is the tile encoding: png, jpg or bmp
		Format string `yaml:"format"`

		// JPEGQuality applies when Format is jpg
		JPEGQuality int `yaml:"jpegQuality"`
	} `yaml:"output"`

	Processing struct {
		// Filter names the resampling filter (lanczos, catmullrom, mitchell, ...)
		Filter string `yaml:"filter"`

		// Sequence slices across image boundaries instead of per image
		Sequence bool `yaml:"sequence"`

		// StartPostfix is the number given to the first tile
		StartPostfix int `yaml:"startPostfix"`

		// Extensions lists the file extensions picked up when scanning a directory
		Extensions []string `yaml:"extensions"`
	} `yaml:"processing"`

	Retention struct {
		// TTL is how long API job output is kept, as a Go duration; "0" keeps it forever
		TTL string `yaml:"ttl"`

		// Schedule is the standard five-field cron expression the sweep runs on
		Schedule string `yaml:"schedule"`
	} `yaml:"retention"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Output.Width = 800
	cfg.Output.Height = 1280
	cfg.Output.Format = "png"
	cfg.Output.JPEGQuality = 90

	cfg.Processing.Filter = "lanczos"
	cfg.Processing.Sequence = false
	cfg.Processing.StartPostfix = 1
	cfg.Processing.Extensions = []string{".jpg", ".jpeg", ".png"}

	cfg.Retention.TTL = "24h"
	cfg.Retention.Schedule = "30 3 * * *"

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// An empty path or a file that doesn't exist yields the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()
	if configPath == "" {
		return cfg, nil
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides values from STRIP_* variables found by lookup (usually os.LookupEnv).
func (cfg *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"STRIP_WIDTH":         &cfg.Output.Width,
		"STRIP_HEIGHT":        &cfg.Output.Height,
		"STRIP_JPEG_QUALITY":  &cfg.Output.JPEGQuality,
		"STRIP_START_POSTFIX": &cfg.Processing.StartPostfix,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "%s must be an integer", key)
			}
			*dst = n
		}
	}

	if v, ok := lookup("STRIP_FORMAT"); ok && v != "" {
		cfg.Output.Format = v
	}
	if v, ok := lookup("STRIP_FILTER"); ok && v != "" {
		cfg.Processing.Filter = v
	}
	if v, ok := lookup("STRIP_SEQUENCE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "STRIP_SEQUENCE must be a boolean")
		}
		cfg.Processing.Sequence = b
	}
	if v, ok := lookup("STRIP_EXTENSIONS"); ok && v != "" {
		cfg.Processing.Extensions = strings.Split(v, ",")
	}
	if v, ok := lookup("STRIP_RETENTION_TTL"); ok && v != "" {
		cfg.Retention.TTL = v
	}
	if v, ok := lookup("STRIP_RETENTION_SCHEDULE"); ok && v != "" {
		cfg.Retention.Schedule = v
	}
	return nil
}

// Validate checks the values a run depends on.
func (cfg *Config) Validate() error {
	if cfg.Output.Width <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "width must be positive, got %d", cfg.Output.Width)
	}
	if cfg.Output.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "height must be positive, got %d", cfg.Output.Height)
	}
	if cfg.Output.JPEGQuality < 1 || cfg.Output.JPEGQuality > 100 {
		return errors.New(errors.ErrCodeInvalidInput, "jpeg quality must be between 1 and 100, got %d", cfg.Output.JPEGQuality)
	}
	if _, err := raster.ParseFormat(cfg.Output.Format); err != nil {
		return err
	}
	if _, err := stage.ParseFilter(cfg.Processing.Filter); err != nil {
		return err
	}
	if len(cfg.Processing.Extensions) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one input extension is required")
	}
	if _, err := cfg.RetentionTTL(); err != nil {
		return err
	}
	if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid retention schedule %q", cfg.Retention.Schedule)
	}
	return nil
}

// RetentionTTL parses Retention.TTL. Zero, or an empty value, disables the sweep.
func (cfg *Config) RetentionTTL() (time.Duration, error) {
	if strings.TrimSpace(cfg.Retention.TTL) == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(strings.TrimSpace(cfg.Retention.TTL))
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid retention ttl %q", cfg.Retention.TTL)
	}
	if ttl < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "retention ttl must not be negative, got %s", ttl)
	}
	return ttl, nil
}

// Clone returns a deep copy, so per-request overrides don't leak into shared config.
func (cfg *Config) Clone() *Config {
	c := *cfg
	c.Processing.Extensions = append([]string(nil), cfg.Processing.Extensions...)
	return &c
}
