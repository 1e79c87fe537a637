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

package fragment

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest is the parent of every precondition failure in Split,
	// Join and StripHash. These indicate a programming or data-integrity
	// error and are never expected during normal operation.
	ErrBadRequest = errors.New("fragment: bad request")

	// ErrNilBuffer is returned when Split is given a nil buffer.
	ErrNilBuffer = fmt.Errorf("%w: cannot split a nil buffer", ErrBadRequest)

	// ErrPartCount is returned when Split is asked for fewer than one part.
	ErrPartCount = fmt.Errorf("%w: cannot split into fewer than one part", ErrBadRequest)

	// ErrNilFragments is returned when Join is given a nil fragment list.
	ErrNilFragments = fmt.Errorf("%w: cannot join a nil fragment list", ErrBadRequest)

	// ErrNilFragment is returned when Join meets a zero-value fragment.
	ErrNilFragment = fmt.Errorf("%w: cannot join a nil fragment", ErrBadRequest)

	// ErrNotDescending is returned when a fragment is longer than the one
	// before it.
	ErrNotDescending = fmt.Errorf("%w: cannot join when fragment lengths increase", ErrBadRequest)

	// ErrSizeSkew is returned when the longest and shortest fragments differ
	// by more than two bytes.
	ErrSizeSkew = fmt.Errorf("%w: cannot join when fragment lengths differ by more than two", ErrBadRequest)

	// ErrLayout is returned when fragment lengths pass the ordering and skew
	// checks but still cannot be interleaved byte by byte.
	ErrLayout = fmt.Errorf("%w: fragment lengths do not form a round-robin layout", ErrBadRequest)

	// ErrHashMissing is returned by StripHash when the buffer cannot hold a
	// digest.
	ErrHashMissing = fmt.Errorf("%w: buffer is shorter than a hash digest", ErrBadRequest)

	// ErrNilKey is returned when Encrypt or Decrypt is called without a key.
	ErrNilKey = fmt.Errorf("%w: key is nil", ErrBadRequest)

	// ErrCryptoOperation matches every *CryptoError.
	ErrCryptoOperation = errors.New("fragment: crypto operation failed")
)

// CryptoError reports a failed AEAD operation. During reconstruction a
// CryptoError from Decrypt means "wrong key for this layer" and is
// swallowed by Peel; anywhere else it is fatal.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("fragment: %s failed: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCryptoOperation.
func (e *CryptoError) Is(target error) bool {
	return target == ErrCryptoOperation
}
