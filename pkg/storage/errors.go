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

package storage

import "errors"

var (
	// ErrClosed is returned when a closed backend is used.
	ErrClosed = errors.New("storage: closed")

	// ErrNotFound is returned when a key does not exist.
	ErrNotFound = errors.New("storage: not found")

	// ErrAlreadyExists is returned by Put when the key exists and the options
	// forbid overwriting it.
	ErrAlreadyExists = errors.New("storage: already exists")

	// ErrInvalidKey is returned for empty keys, absolute paths and keys that
	// would escape the backend root.
	ErrInvalidKey = errors.New("storage: invalid key")
)
