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

package parcel

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jeremyhahn/go-testament/pkg/logging"
	"github.com/jeremyhahn/go-testament/pkg/storage"
)

// FileExt is the extension of every parcel file.
const FileExt = ".key"

// Entry is one decoded parcel file.
type Entry struct {
	// Name is the storage key the entry was read from.
	Name   string
	Meta   Meta
	Record Record
}

// Store persists records through a storage.Backend, one file per
// custodian.
type Store struct {
	backend   storage.Backend
	logger    *logging.Logger
	overwrite bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for warnings during LoadAll and
// rollback.
func WithLogger(l *logging.Logger) StoreOption {
	return func(s *Store) { s.logger = l }
}

// WithOverwrite lets Save replace existing parcel files.
func WithOverwrite(overwrite bool) StoreOption {
	return func(s *Store) { s.overwrite = overwrite }
}

// NewStore returns a Store writing to backend.
func NewStore(backend storage.Backend, opts ...StoreOption) *Store {
	s := &Store{backend: backend}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileName returns the storage key for a custodian: the name with every
// run of whitespace replaced by a single underscore, plus FileExt.
func FileName(custodian string) string {
	return strings.Join(strings.FieldsFunc(custodian, unicode.IsSpace), "_") + FileExt
}

// Save encodes every record with meta and writes it under
// FileName(custodian). Nothing is written unless every record encodes. If
// a write fails, files already written by this call are removed again.
// It returns the storage keys written, in record order.
func (s *Store) Save(meta Meta, records ...Record) ([]string, error) {
	names := make([]string, len(records))
	payloads := make([][]byte, len(records))
	seen := make(map[string]string, len(records))

	for i, rec := range records {
		data, err := Marshal(meta, rec)
		if err != nil {
			return nil, err
		}
		custodian := rec.Header().Custodian
		name := FileName(custodian)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q and %q both map to %s", ErrNameCollision, prev, custodian, name)
		}
		seen[name] = custodian
		names[i] = name
		payloads[i] = data
	}

	opts := storage.DefaultOptions()
	opts.Overwrite = s.overwrite

	written := make([]string, 0, len(records))
	for i, name := range names {
		if err := s.backend.Put(name, payloads[i], opts); err != nil {
			s.rollback(written)
			return nil, fmt.Errorf("parcel: failed to write %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

func (s *Store) rollback(written []string) {
	for _, name := range written {
		if err := s.backend.Delete(name); err != nil {
			s.logger.Warn("failed to roll back parcel", "file", name, "error", err)
		}
	}
}

// Load reads and decodes one parcel file.
func (s *Store) Load(name string) (*Entry, error) {
	data, err := s.backend.Get(name)
	if err != nil {
		return nil, fmt.Errorf("parcel: failed to read %s: %w", name, err)
	}
	meta, rec, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Entry{Name: name, Meta: meta, Record: rec}, nil
}

// LoadAll decodes every *.key file in the backend, in name order. Files
// that are not parcels are skipped with a warning; backend failures are
// returned.
func (s *Store) LoadAll() ([]*Entry, error) {
	names, err := s.backend.List("")
	if err != nil {
		return nil, fmt.Errorf("parcel: failed to list parcels: %w", err)
	}

	entries := make([]*Entry, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, FileExt) {
			continue
		}
		entry, err := s.Load(name)
		if err != nil {
			if errors.Is(err, ErrCorruptRecord) || errors.Is(err, ErrUnknownRecord) ||
				errors.Is(err, ErrUnsupportedVersion) {
				s.logger.Warn("skipping file that is not a parcel", "file", name, "error", err)
				continue
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
