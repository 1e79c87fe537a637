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
	"fmt"

	"github.com/jeremyhahn/go-testament/pkg/metrics"
	"github.com/jeremyhahn/go-testament/pkg/parcel"
	"github.com/spf13/cobra"
)

func newInspectCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect KEYFILE...",
		Short: "Describe parcel files without revealing key material",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("%w: %s requires at least one parcel file", ErrUsage, cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cfg.observe(metrics.OpInspect, func() error {
				return runInspect(cfg, args)
			})
		},
	}
}

func runInspect(cfg *Config, paths []string) error {
	reader := newParcelReader(cfg)
	defer func() { _ = reader.Close() }()

	entries, err := reader.loadFiles(paths)
	if err != nil {
		return err
	}

	infos := make([]*ParcelInfo, len(entries))
	for i, entry := range entries {
		infos[i] = describe(entry)
		metrics.AddParcels(metrics.OpInspect, infos[i].Role, 1)
	}
	return cfg.printer().PrintParcels(infos)
}

// describe summarizes an entry. Keys and fragments are reported by size
// only.
func describe(entry *parcel.Entry) *ParcelInfo {
	header := entry.Record.Header()
	info := &ParcelInfo{
		File:        entry.Name,
		Role:        entry.Record.Role().String(),
		Custodian:   header.Custodian,
		Ordinal:     header.Ordinal,
		WillID:      entry.Meta.WillID.String(),
		Description: entry.Meta.Description,
		CreatedAt:   entry.Meta.CreatedAt,
	}
	if fp, ok := entry.Record.(*parcel.FloatingParcel); ok {
		info.FloaterCount = fp.FloaterCount
		info.Variants = len(fp.KeyFragments)
		info.CiphertextSize = len(fp.Ciphertext)
		if len(fp.KeyFragments) > 0 {
			info.VariantSize = len(fp.KeyFragments[0])
		}
	}
	return info
}
