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

// Package parcel defines the records handed to custodians and the
// envelope they are stored in.
//
// A required custodian receives a Parcel: their name, their aggregated
// key and an ordinal. A floating custodian receives a FloatingParcel,
// which adds their share of the ciphertext and the onion-wrapped variants
// of their share of the main key. Both satisfy Record.
//
// On disk every record is wrapped in an Envelope carrying the will ID, a
// free-form description, a creation time and a BLAKE3 checksum of the
// CBOR-encoded record body.
package parcel

import (
	"fmt"

	"github.com/jeremyhahn/go-testament/pkg/key"
)

// MaxFloaters bounds FloaterCount. Reconstruction allocates a table of
// FloaterCount slots per variant, so a record may not ask for more.
const MaxFloaters = 1024

// Role distinguishes required from floating records.
type Role int

const (
	RoleRequired Role = iota
	RoleFloating
)

func (r Role) String() string {
	switch r {
	case RoleRequired:
		return "required"
	case RoleFloating:
		return "floating"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Record is implemented by *Parcel and *FloatingParcel only.
type Record interface {
	// Role reports which kind of record this is.
	Role() Role
	// Header returns the fields shared by both kinds.
	Header() *Parcel
	// Validate checks the record's shape.
	Validate() error

	sealed()
}

// Parcel is the record given to a required custodian and the common
// header of a FloatingParcel.
type Parcel struct {
	Custodian string
	// Key is the custodian's aggregated key, secret || nonce.
	Key []byte
	// Ordinal is the custodian's position in its list. Reconstruction
	// sorts by it.
	Ordinal int
}

func (p *Parcel) Role() Role      { return RoleRequired }
func (p *Parcel) Header() *Parcel { return p }
func (p *Parcel) sealed()         {}

// Validate checks the custodian name, key length and ordinal.
func (p *Parcel) Validate() error {
	if p.Custodian == "" {
		return fmt.Errorf("%w: custodian name is empty", ErrInvalidParcel)
	}
	if len(p.Key) != key.AggregatedSize {
		return fmt.Errorf("%w: %s: key is %d bytes, want %d",
			ErrInvalidParcel, p.Custodian, len(p.Key), key.AggregatedSize)
	}
	if p.Ordinal < 0 {
		return fmt.Errorf("%w: %s: negative ordinal %d", ErrInvalidParcel, p.Custodian, p.Ordinal)
	}
	return nil
}

// UnwrapKey rebuilds the custodian's key.
func (p *Parcel) UnwrapKey() (*key.Key, error) {
	return key.FromAggregated(p.Custodian, p.Key)
}

// FloatingParcel is the record given to a floating custodian.
type FloatingParcel struct {
	Parcel

	// Ciphertext is this custodian's merged share of the encrypted
	// plaintext: every ciphertext fragment except the one at Ordinal.
	Ciphertext []byte

	// KeyFragments holds one onion-wrapped copy of this custodian's merged
	// share of the protected main key per combination of other floating
	// custodians.
	KeyFragments [][]byte

	// FloaterCount is the number of floating custodians in the will.
	FloaterCount int
}

func (f *FloatingParcel) Role() Role { return RoleFloating }

// Validate checks the header and the floating fields.
func (f *FloatingParcel) Validate() error {
	if err := f.Parcel.Validate(); err != nil {
		return err
	}
	if len(f.Ciphertext) == 0 {
		return fmt.Errorf("%w: %s: ciphertext share is empty", ErrInvalidParcel, f.Custodian)
	}
	if len(f.KeyFragments) == 0 {
		return fmt.Errorf("%w: %s: no key fragments", ErrInvalidParcel, f.Custodian)
	}
	for i, frag := range f.KeyFragments {
		if len(frag) == 0 {
			return fmt.Errorf("%w: %s: key fragment %d is empty", ErrInvalidParcel, f.Custodian, i)
		}
	}
	if f.FloaterCount < 2 {
		return fmt.Errorf("%w: %s: floater count %d is below two", ErrInvalidParcel, f.Custodian, f.FloaterCount)
	}
	if f.FloaterCount > MaxFloaters {
		return fmt.Errorf("%w: %s: floater count %d exceeds %d", ErrInvalidParcel, f.Custodian, f.FloaterCount, MaxFloaters)
	}
	if f.Ordinal >= f.FloaterCount {
		return fmt.Errorf("%w: %s: ordinal %d out of range for %d floaters",
			ErrInvalidParcel, f.Custodian, f.Ordinal, f.FloaterCount)
	}
	return nil
}

var (
	_ Record = (*Parcel)(nil)
	_ Record = (*FloatingParcel)(nil)
)
