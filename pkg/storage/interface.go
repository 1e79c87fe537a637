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

// Package storage defines the key-value abstraction parcels are persisted
// through. The file subpackage writes one file per key on an afero
// filesystem.
package storage

import (
	"io/fs"
)

// Backend is a flat key-value store. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put stores value under key. An existing key is replaced only when
	// opts allow overwriting (see AllowOverwrite); otherwise Put returns
	// ErrAlreadyExists and leaves the stored value untouched.
	Put(key string, value []byte, opts *Options) error

	// Delete removes key, or returns ErrNotFound.
	Delete(key string) error

	// List returns every key starting with prefix in sorted order. An empty
	// prefix lists everything.
	List(prefix string) ([]string, error)

	// Exists reports whether key is present.
	Exists(key string) (bool, error)

	// Close releases the backend. Later calls return ErrClosed.
	Close() error
}

// Options tune a single Put.
type Options struct {
	// Permissions for file-backed stores. Zero selects the backend default.
	Permissions fs.FileMode

	// Overwrite allows Put to replace an existing key. When false an
	// existing key yields ErrAlreadyExists.
	Overwrite bool
}

// DefaultOptions returns owner-only permissions and overwrite enabled.
func DefaultOptions() *Options {
	return &Options{
		Permissions: 0600,
		Overwrite:   true,
	}
}

// AllowOverwrite reports whether opts permit replacing a key. Nil options
// behave like DefaultOptions.
func AllowOverwrite(opts *Options) bool {
	return opts == nil || opts.Overwrite
}
