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

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeremyhahn/go-testament/internal/config"
	"github.com/jeremyhahn/go-testament/pkg/correlation"
	"github.com/jeremyhahn/go-testament/pkg/logging"
	"github.com/jeremyhahn/go-testament/pkg/metrics"
	"github.com/spf13/afero"
)

// ErrUsage marks errors caused by how the command was invoked.
var ErrUsage = errors.New("usage error")

// Config holds global CLI state: persistent flags, the loaded file
// configuration and the I/O the commands run against.
type Config struct {
	// ConfigFile is the path to the YAML configuration file
	ConfigFile string

	// OutputFormat overrides output.format when set (text, json, yaml)
	OutputFormat string

	// Verbose forces debug logging
	Verbose bool

	// MetricsFile overrides metrics.textfile and enables the export
	MetricsFile string

	// Settings is the resolved file configuration. Nil until load runs.
	Settings *config.Config

	Fs     afero.Fs
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logger *logging.Logger
	runID  string
	// started is set once a command body runs; errors before that are
	// invocation errors.
	started bool
}

// NewConfig creates a Config bound to the OS filesystem and standard
// streams.
func NewConfig() *Config {
	return &Config{
		Fs:     afero.NewOsFs(),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// load reads the configuration file, applies flag overrides and builds
// the logger. It runs before every command.
func (c *Config) load() error {
	settings, err := config.LoadFs(c.Fs, c.ConfigFile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if c.OutputFormat != "" {
		settings.Output.Format = strings.ToLower(c.OutputFormat)
	}
	if c.Verbose {
		settings.Logging.Level = "debug"
	}
	if c.MetricsFile != "" {
		settings.Metrics.Enabled = true
		settings.Metrics.Textfile = c.MetricsFile
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	logger, err := logging.New(logging.Options{
		Level:  settings.Logging.Level,
		Format: settings.Logging.Format,
		Writer: c.Stderr,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if c.runID != "" {
		logger = logger.With(correlation.LogKey, c.runID)
	}

	if settings.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	c.Settings = settings
	c.logger = logger
	return nil
}

// Logger returns the configured logger, or a discarding one before load.
func (c *Config) Logger() *logging.Logger {
	if c.logger == nil {
		return logging.Discard()
	}
	return c.logger
}

// format returns the output format in effect.
func (c *Config) format() string {
	if c.Settings != nil {
		return c.Settings.Output.Format
	}
	if c.OutputFormat != "" {
		return c.OutputFormat
	}
	return string(OutputFormatText)
}

// printer returns a Printer writing to stdout in the configured format.
func (c *Config) printer() *Printer {
	return NewPrinter(c.format(), c.Stdout)
}

// exportMetrics writes the textfile when metrics are enabled.
func (c *Config) exportMetrics() error {
	if c.Settings == nil || !c.Settings.Metrics.Enabled {
		return nil
	}
	if err := metrics.WriteTextfile(c.Settings.Metrics.Textfile); err != nil {
		return err
	}
	c.Logger().Debug("metrics written", "path", c.Settings.Metrics.Textfile)
	return nil
}
