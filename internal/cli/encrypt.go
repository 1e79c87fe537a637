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

	"github.com/jeremyhahn/go-testament/pkg/metrics"
	"github.com/jeremyhahn/go-testament/pkg/parcel"
	"github.com/jeremyhahn/go-testament/pkg/storage/file"
	"github.com/jeremyhahn/go-testament/pkg/will"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type encryptOptions struct {
	file        string
	required    []string
	floating    []string
	minFloating int
	outDir      string
	description string
	overwrite   bool
}

func newEncryptCmd(cfg *Config) *cobra.Command {
	opts := &encryptOptions{}
	cmd := &cobra.Command{
		Use:   "encrypt -f FILE -l NAME,... -m M [-r NAME,...]",
		Short: "Encrypt a file into custodian parcels",
		Long: `Encrypt FILE under a fresh key and write one <custodian>.key parcel per
custodian. Every required custodian and at least M floating custodians
are needed to decrypt.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.observe(metrics.OpEncrypt, func() error {
				return runEncrypt(cmd.Context(), cfg, opts)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "file to encrypt")
	f.StringSliceVarP(&opts.required, "required", "r", nil, "required custodians (repeatable or comma separated)")
	f.StringSliceVarP(&opts.floating, "floating", "l", nil, "floating custodians (repeatable or comma separated)")
	f.IntVarP(&opts.minFloating, "min-floating", "m", 0, "floating custodians needed to decrypt")
	f.StringVar(&opts.outDir, "out-dir", "", "directory for parcel files (default output.dir)")
	f.StringVar(&opts.description, "description", "", "description stamped on every parcel (default description)")
	f.BoolVar(&opts.overwrite, "overwrite", false, "replace existing parcel files")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("floating")
	_ = cmd.MarkFlagRequired("min-floating")
	return cmd
}

func runEncrypt(ctx context.Context, cfg *Config, opts *encryptOptions) error {
	names, err := normalizeNames(opts.required, opts.floating)
	if err != nil {
		return err
	}
	required, floating := names[0], names[1]

	plaintext, err := afero.ReadFile(cfg.Fs, opts.file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.file, err)
	}
	printVerbose(cfg, "read %d bytes from %s", len(plaintext), opts.file)

	dist, err := will.Distribute(ctx, will.DistributionRequest{
		Plaintext:   plaintext,
		Required:    required,
		Floating:    floating,
		MinFloating: opts.minFloating,
	}, will.WithLogger(cfg.Logger()))
	if err != nil {
		return err
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = cfg.Settings.Output.Dir
	}
	description := opts.description
	if description == "" {
		description = cfg.Settings.Description
	}

	backend, err := file.New(cfg.Fs, outDir)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	store := parcel.NewStore(backend,
		parcel.WithLogger(cfg.Logger()),
		parcel.WithOverwrite(opts.overwrite || cfg.Settings.Output.Overwrite))

	meta := parcel.NewMeta(description)
	files, err := store.Save(meta, dist.Records()...)
	if err != nil {
		return err
	}

	metrics.AddParcels(metrics.OpEncrypt, parcel.RoleRequired.String(), len(dist.Required))
	metrics.AddParcels(metrics.OpEncrypt, parcel.RoleFloating.String(), len(dist.Floating))
	cfg.Logger().Info("will encrypted",
		"will_id", meta.WillID.String(),
		"required", len(required),
		"floating", len(floating),
		"min_floating", opts.minFloating)

	return cfg.printer().PrintEncryptResult(&EncryptResult{
		WillID:      meta.WillID.String(),
		Description: description,
		Directory:   backend.Root(),
		MinFloating: opts.minFloating,
		Required:    required,
		Floating:    floating,
		Files:       files,
	})
}
