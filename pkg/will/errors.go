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

package will

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned by Distribute for unusable input.
	ErrInvalidRequest = errors.New("will: invalid distribution request")

	// ErrReconstructionFailed is the parent of every reconstruction failure.
	ErrReconstructionFailed = errors.New("will: reconstruction failed")

	// ErrInsufficientFloaters is returned when fewer than two floating
	// parcels are supplied.
	ErrInsufficientFloaters = fmt.Errorf("%w: at least two floating parcels are required for reconstruction", ErrReconstructionFailed)

	// ErrInconsistentParcels is returned when floating parcels disagree on
	// the number of floaters or share an ordinal, or required parcels share
	// a custodian.
	ErrInconsistentParcels = fmt.Errorf("%w: parcels do not belong together", ErrReconstructionFailed)

	// ErrNoCoalition is returned when no set of supplied parcels could peel
	// every layer protecting the main key.
	ErrNoCoalition = fmt.Errorf("%w: no coalition of the supplied parcels can unlock the main key", ErrReconstructionFailed)

	// ErrMainKeyMismatch is returned when the reassembled main key fails its
	// integrity check.
	ErrMainKeyMismatch = fmt.Errorf("%w: reassembled main key failed verification", ErrReconstructionFailed)

	// ErrPlaintextMismatch is returned when the reassembled ciphertext does
	// not decrypt and verify under the recovered main key.
	ErrPlaintextMismatch = fmt.Errorf("%w: reassembled plaintext failed verification", ErrReconstructionFailed)

	// ErrMixedWills is returned when parcels from different wills are
	// supplied together.
	ErrMixedWills = fmt.Errorf("%w: parcels belong to different wills", ErrReconstructionFailed)
)
