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
	"context"
	"fmt"

	"github.com/jeremyhahn/go-testament/pkg/correlation"
	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree around cfg.
func NewRootCommand(cfg *Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "testament",
		Short: "testament - split a secret file among custodians",
		Long: `testament encrypts a file once and hands each custodian a parcel.

The file can only be recovered by every required custodian together with
at least the chosen number of floating custodians:

  testament encrypt -f will.pdf -r executor -l alice,bob,carol -m 2
  testament decrypt -f will.pdf -k executor.key -k alice.key -k carol.key`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.load()
		},
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "",
		"config file (default none)")
	rootCmd.PersistentFlags().StringVarP(&cfg.OutputFormat, "output", "o", "",
		"output format (text, json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().StringVar(&cfg.MetricsFile, "metrics-file", "",
		"write Prometheus metrics to this file on exit")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})
	rootCmd.SetIn(cfg.Stdin)
	rootCmd.SetOut(cfg.Stdout)
	rootCmd.SetErr(cfg.Stderr)

	// Add subcommands
	rootCmd.AddCommand(newEncryptCmd(cfg))
	rootCmd.AddCommand(newDecryptCmd(cfg))
	rootCmd.AddCommand(newInspectCmd(cfg))
	rootCmd.AddCommand(newVersionCmd(cfg))
	return rootCmd
}

// Execute runs the CLI against the OS filesystem and standard streams.
func Execute(ctx context.Context, args []string) error {
	return Run(ctx, NewConfig(), args)
}

// Run executes args against cfg. Errors are printed to cfg.Stderr and
// returned for ExitCode. Metrics are exported whether or not the command
// succeeded.
func Run(ctx context.Context, cfg *Config, args []string) error {
	ctx, cfg.runID = correlation.Ensure(ctx)
	rootCmd := NewRootCommand(cfg)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !cfg.started {
		// Cobra rejected the invocation before any command ran.
		err = usageError(err)
	}

	if exportErr := cfg.exportMetrics(); exportErr != nil {
		if err == nil {
			err = exportErr
		} else {
			cfg.Logger().Error(exportErr)
		}
	}

	if err != nil {
		_ = NewPrinter(cfg.format(), cfg.Stderr).PrintError(err) // Error printing to stderr is best-effort
	}
	return err
}

// printVerbose prints a debug message through the configured logger
func printVerbose(cfg *Config, format string, args ...interface{}) {
	cfg.Logger().Debugf(format, args...)
}

func usageError(err error) error {
	if err == nil || ExitCode(err) == ExitUsage {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUsage, err)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: %s takes no arguments, got %q", ErrUsage, cmd.CommandPath(), args)
	}
	return nil
}
