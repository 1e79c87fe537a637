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
	"io/fs"
	"os"

	"github.com/jeremyhahn/go-testament/pkg/fragment"
	"github.com/jeremyhahn/go-testament/pkg/key"
	"github.com/jeremyhahn/go-testament/pkg/parcel"
	"github.com/jeremyhahn/go-testament/pkg/storage"
	"github.com/jeremyhahn/go-testament/pkg/will"
)

// Process exit statuses.
const (
	ExitOK             = 0
	ExitUsage          = 1
	ExitIO             = 2
	ExitReconstruction = 3
	ExitInvalidInput   = 4
	ExitInternal       = 5
)

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrUsage), errors.Is(err, will.ErrInvalidRequest):
		return ExitUsage
	case errors.Is(err, will.ErrReconstructionFailed):
		return ExitReconstruction
	case errors.Is(err, key.ErrInvalidKeyMaterial),
		errors.Is(err, parcel.ErrCorruptRecord),
		errors.Is(err, parcel.ErrUnknownRecord),
		errors.Is(err, parcel.ErrUnsupportedVersion):
		return ExitInvalidInput
	case errors.Is(err, fragment.ErrBadRequest),
		errors.Is(err, fragment.ErrCryptoOperation),
		errors.Is(err, parcel.ErrInvalidParcel):
		return ExitInternal
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrAlreadyExists),
		errors.Is(err, storage.ErrInvalidKey),
		errors.Is(err, storage.ErrClosed),
		errors.Is(err, parcel.ErrNameCollision):
		return ExitIO
	}

	var pathErr *fs.PathError
	var linkErr *os.LinkError
	if errors.As(err, &pathErr) || errors.As(err, &linkErr) {
		return ExitIO
	}
	return ExitInternal
}
