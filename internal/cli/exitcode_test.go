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
	"io/fs"
	"os"
	"testing"

	"github.com/jeremyhahn/go-testament/pkg/fragment"
	"github.com/jeremyhahn/go-testament/pkg/key"
	"github.com/jeremyhahn/go-testament/pkg/parcel"
	"github.com/jeremyhahn/go-testament/pkg/storage"
	"github.com/jeremyhahn/go-testament/pkg/will"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"usage", fmt.Errorf("%w: bad flag", ErrUsage), ExitUsage},
		{"invalid request", fmt.Errorf("wrapped: %w", will.ErrInvalidRequest), ExitUsage},
		{"no coalition", will.ErrNoCoalition, ExitReconstruction},
		{"mixed wills", will.ErrMixedWills, ExitReconstruction},
		{"plaintext mismatch", fmt.Errorf("x: %w", will.ErrPlaintextMismatch), ExitReconstruction},
		{"invalid key", key.ErrInvalidKeyMaterial, ExitInvalidInput},
		{"corrupt record", parcel.ErrCorruptRecord, ExitInvalidInput},
		{"unknown record", parcel.ErrUnknownRecord, ExitInvalidInput},
		{"unsupported version", parcel.ErrUnsupportedVersion, ExitInvalidInput},
		{"bad fragment request", fragment.ErrLayout, ExitInternal},
		{"crypto", &fragment.CryptoError{Op: "encrypt", Err: errors.New("boom")}, ExitInternal},
		{"not found", storage.ErrNotFound, ExitIO},
		{"already exists", fmt.Errorf("%w: a.key", storage.ErrAlreadyExists), ExitIO},
		{"name collision", parcel.ErrNameCollision, ExitIO},
		{"path error", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}, ExitIO},
		{"link error", &os.LinkError{Op: "rename", Old: "a", New: "b", Err: fs.ErrPermission}, ExitIO},
		{"unknown", errors.New("surprise"), ExitInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "usage", errorType(ErrUsage))
	assert.Equal(t, "io", errorType(storage.ErrNotFound))
	assert.Equal(t, "reconstruction", errorType(will.ErrNoCoalition))
	assert.Equal(t, "invalid_input", errorType(parcel.ErrCorruptRecord))
	assert.Equal(t, "internal", errorType(errors.New("x")))
}
