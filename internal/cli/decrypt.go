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
	"github.com/jeremyhahn/go-testament/pkg/will"
	"github.com/spf13/cobra"
)

type decryptOptions struct {
	file     string
	keyFiles []string
	inDir    string
}

func newDecryptCmd(cfg *Config) *cobra.Command {
	opts := &decryptOptions{}
	cmd := &cobra.Command{
		Use:   "decrypt -f OUTFILE (-k KEYFILE... | --in-dir DIR)",
		Short: "Recover a file from custodian parcels",
		Long: `Reassemble the encrypted file from the supplied parcels and write the
plaintext to OUTFILE. OUTFILE is only written once the recovered key and
plaintext have both been verified.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.observe(metrics.OpDecrypt, func() error {
				return runDecrypt(cmd.Context(), cfg, opts)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "where to write the recovered file")
	f.StringSliceVarP(&opts.keyFiles, "key", "k", nil, "parcel files (repeatable or comma separated)")
	f.StringVar(&opts.inDir, "in-dir", "", "read every parcel in this directory")
	_ = cmd.MarkFlagRequired("file")
	cmd.MarkFlagsMutuallyExclusive("key", "in-dir")
	cmd.MarkFlagsOneRequired("key", "in-dir")
	return cmd
}

func runDecrypt(ctx context.Context, cfg *Config, opts *decryptOptions) error {
	reader := newParcelReader(cfg)
	defer func() { _ = reader.Close() }()

	var entries []*parcel.Entry
	var err error
	if opts.inDir != "" {
		entries, err = reader.loadDir(opts.inDir)
	} else {
		entries, err = reader.loadFiles(opts.keyFiles)
	}
	if err != nil {
		return err
	}
	printVerbose(cfg, "loaded %d parcels", len(entries))

	if err := checkSameWill(entries); err != nil {
		return err
	}

	records := make([]parcel.Record, len(entries))
	counts := make(map[parcel.Role]int)
	for i, entry := range entries {
		records[i] = entry.Record
		counts[entry.Record.Role()]++
	}
	metrics.AddParcels(metrics.OpDecrypt, parcel.RoleRequired.String(), counts[parcel.RoleRequired])
	metrics.AddParcels(metrics.OpDecrypt, parcel.RoleFloating.String(), counts[parcel.RoleFloating])

	plaintext, err := will.Reconstruct(ctx, records, will.WithLogger(cfg.Logger()))
	if err != nil {
		return err
	}

	if err := writeFileAtomic(cfg.Fs, opts.file, plaintext); err != nil {
		return err
	}

	willID := ""
	if len(entries) > 0 {
		willID = entries[0].Meta.WillID.String()
	}
	cfg.Logger().Info("will decrypted", "will_id", willID, "parcels", len(entries), "output", opts.file)

	return cfg.printer().PrintDecryptResult(&DecryptResult{
		WillID:  willID,
		Output:  opts.file,
		Bytes:   len(plaintext),
		Parcels: len(entries),
	})
}

// checkSameWill rejects parcels stamped with different will IDs.
func checkSameWill(entries []*parcel.Entry) error {
	for _, entry := range entries[min(1, len(entries)):] {
		if entry.Meta.WillID != entries[0].Meta.WillID {
			return fmt.Errorf("%w: %s is from will %s, %s is from will %s",
				will.ErrMixedWills,
				entries[0].Name, entries[0].Meta.WillID,
				entry.Name, entry.Meta.WillID)
		}
	}
	return nil
}
