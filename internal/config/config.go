// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-testament.
//
// go-testament is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the optional testament YAML configuration file and
// applies environment overrides on top of it.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvLogLevel       = "TESTAMENT_LOG_LEVEL"
	EnvLogFormat      = "TESTAMENT_LOG_FORMAT"
	EnvOutputDir      = "TESTAMENT_OUTPUT_DIR"
	EnvOutputFormat   = "TESTAMENT_OUTPUT_FORMAT"
	EnvMetricsFile    = "TESTAMENT_METRICS_FILE"
	EnvMetricsEnabled = "TESTAMENT_METRICS_ENABLED"
)

// Config is the complete CLI configuration
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
	Metrics MetricsConfig `yaml:"metrics"`

	// Description is stamped on every parcel written by encrypt unless
	// --description is given.
	Description string `yaml:"description"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// OutputConfig controls where parcels go and how results are printed
type OutputConfig struct {
	// Dir receives parcel files from encrypt. Relative to the working
	// directory.
	Dir string `yaml:"dir"`
	// Format is text, json or yaml.
	Format string `yaml:"format"`
	// Overwrite lets encrypt replace existing parcel files.
	Overwrite bool `yaml:"overwrite"`
}

// MetricsConfig controls the Prometheus textfile export
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Output:  OutputConfig{Dir: ".", Format: "text"},
	}
}

// Load reads path from the OS filesystem. An empty path yields Default.
// Environment overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs is Load on an arbitrary filesystem.
func LoadFs(fsys afero.Fs, path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv(EnvLogFormat); format != "" {
		cfg.Logging.Format = format
	}
	if dir := os.Getenv(EnvOutputDir); dir != "" {
		cfg.Output.Dir = dir
	}
	if format := os.Getenv(EnvOutputFormat); format != "" {
		cfg.Output.Format = format
	}
	if textfile := os.Getenv(EnvMetricsFile); textfile != "" {
		cfg.Metrics.Textfile = textfile
		cfg.Metrics.Enabled = true
	}
	if enabled := os.Getenv(EnvMetricsEnabled); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			log.Printf("Warning: invalid %s value %q, keeping %t: %v",
				EnvMetricsEnabled, enabled, cfg.Metrics.Enabled, err)
		} else {
			cfg.Metrics.Enabled = v
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true, "text": true,
	}
	if !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	validOutputFormats := map[string]bool{
		"text": true, "json": true, "yaml": true,
	}
	if !validOutputFormats[strings.ToLower(c.Output.Format)] {
		return fmt.Errorf("invalid output format: %s (must be text, json, or yaml)", c.Output.Format)
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output dir must be specified")
	}

	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		return fmt.Errorf("metrics textfile is required when metrics are enabled")
	}
	return nil
}
