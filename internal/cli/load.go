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
	"path/filepath"

	"github.com/jeremyhahn/go-testament/pkg/parcel"
	"github.com/jeremyhahn/go-testament/pkg/storage/file"
	"github.com/spf13/afero"
)

// parcelReader opens read-only parcel stores, one per directory.
type parcelReader struct {
	cfg     *Config
	fs      afero.Fs
	stores  map[string]*parcel.Store
	closers []func() error
}

func newParcelReader(cfg *Config) *parcelReader {
	return &parcelReader{
		cfg:    cfg,
		fs:     afero.NewReadOnlyFs(cfg.Fs),
		stores: make(map[string]*parcel.Store),
	}
}

func (r *parcelReader) store(dir string) (*parcel.Store, error) {
	dir = filepath.Clean(dir)
	if s, ok := r.stores[dir]; ok {
		return s, nil
	}
	if _, err := r.fs.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to open parcel directory: %w", err)
	}
	backend, err := file.New(r.fs, dir)
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, backend.Close)
	s := parcel.NewStore(backend, parcel.WithLogger(r.cfg.Logger()))
	r.stores[dir] = s
	return s, nil
}

// loadFile decodes the parcel at path.
func (r *parcelReader) loadFile(path string) (*parcel.Entry, error) {
	s, err := r.store(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	entry, err := s.Load(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	entry.Name = path
	return entry, nil
}

// loadFiles decodes every path in order.
func (r *parcelReader) loadFiles(paths []string) ([]*parcel.Entry, error) {
	entries := make([]*parcel.Entry, 0, len(paths))
	for _, path := range paths {
		entry, err := r.loadFile(path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// loadDir decodes every parcel in dir, skipping files that are not
// parcels.
func (r *parcelReader) loadDir(dir string) ([]*parcel.Entry, error) {
	s, err := r.store(dir)
	if err != nil {
		return nil, err
	}
	entries, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		entry.Name = filepath.Join(dir, filepath.FromSlash(entry.Name))
	}
	return entries, nil
}

func (r *parcelReader) Close() error {
	for _, c := range r.closers {
		_ = c()
	}
	return nil
}
