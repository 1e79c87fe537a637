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

import "errors"

var (
	// ErrCorruptRecord is returned when an envelope cannot be decoded, its
	// checksum does not match its body, or a decoded record fails
	// validation.
	ErrCorruptRecord = errors.New("parcel: corrupt record")

	// ErrUnknownRecord is returned when a record body is neither a required
	// nor a floating parcel, or a Record value of an unknown type is seen.
	ErrUnknownRecord = errors.New("parcel: unknown record type")

	// ErrUnsupportedVersion is returned for envelopes written by a newer
	// format version.
	ErrUnsupportedVersion = errors.New("parcel: unsupported envelope version")

	// ErrInvalidParcel is returned when a record about to be written does
	// not validate.
	ErrInvalidParcel = errors.New("parcel: invalid parcel")

	// ErrNameCollision is returned by Store.Save when two custodians map to
	// the same file name.
	ErrNameCollision = errors.New("parcel: custodian file names collide")
)
