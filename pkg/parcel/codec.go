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
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2) so the same
// record always produces the same bytes, which the envelope checksum
// depends on.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("parcel: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("parcel: CBOR decoder initialization failed: " + err.Error())
	}
}

// Map keys of a record body.
const (
	fieldCustodian    = "custodian"
	fieldKey          = "key"
	fieldOrdinal      = "ordinal"
	fieldCiphertext   = "ciphertext"
	fieldKeyFragments = "keyFragments"
	fieldFloaterCount = "floaterCount"
)

var (
	requiredFields = []string{fieldCustodian, fieldKey, fieldOrdinal}
	floatingFields = []string{fieldCiphertext, fieldKeyFragments, fieldFloaterCount}
)

type requiredBody struct {
	Custodian string `cbor:"custodian"`
	Key       []byte `cbor:"key"`
	Ordinal   uint64 `cbor:"ordinal"`
}

type floatingBody struct {
	Custodian    string   `cbor:"custodian"`
	Key          []byte   `cbor:"key"`
	Ordinal      uint64   `cbor:"ordinal"`
	Ciphertext   []byte   `cbor:"ciphertext"`
	KeyFragments [][]byte `cbor:"keyFragments"`
	FloaterCount uint64   `cbor:"floaterCount"`
}

// MarshalRecord encodes r as a deterministic CBOR map. The record must
// validate.
func MarshalRecord(r Record) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil record", ErrUnknownRecord)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	switch rec := r.(type) {
	case *Parcel:
		return encMode.Marshal(requiredBody{
			Custodian: rec.Custodian,
			Key:       rec.Key,
			Ordinal:   uint64(rec.Ordinal),
		})
	case *FloatingParcel:
		return encMode.Marshal(floatingBody{
			Custodian:    rec.Custodian,
			Key:          rec.Key,
			Ordinal:      uint64(rec.Ordinal),
			Ciphertext:   rec.Ciphertext,
			KeyFragments: rec.KeyFragments,
			FloaterCount: uint64(rec.FloaterCount),
		})
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownRecord, r)
}

// UnmarshalRecord decodes a record body and classifies it by the set of
// map keys present: exactly the required fields is a Parcel, the required
// plus all floating fields is a FloatingParcel, anything else is
// ErrUnknownRecord.
func UnmarshalRecord(data []byte) (Record, error) {
	var fields map[string]cbor.RawMessage
	if err := decMode.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	role, err := classify(fields)
	if err != nil {
		return nil, err
	}

	var rec Record
	switch role {
	case RoleRequired:
		var body requiredBody
		if err := decMode.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		ordinal, err := toInt(body.Ordinal)
		if err != nil {
			return nil, err
		}
		rec = &Parcel{Custodian: body.Custodian, Key: body.Key, Ordinal: ordinal}
	case RoleFloating:
		var body floatingBody
		if err := decMode.Unmarshal(data, &body); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		ordinal, err := toInt(body.Ordinal)
		if err != nil {
			return nil, err
		}
		count, err := toInt(body.FloaterCount)
		if err != nil {
			return nil, err
		}
		rec = &FloatingParcel{
			Parcel:       Parcel{Custodian: body.Custodian, Key: body.Key, Ordinal: ordinal},
			Ciphertext:   body.Ciphertext,
			KeyFragments: body.KeyFragments,
			FloaterCount: count,
		}
	}

	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return rec, nil
}

func classify(fields map[string]cbor.RawMessage) (Role, error) {
	for _, name := range requiredFields {
		if _, ok := fields[name]; !ok {
			return 0, fmt.Errorf("%w: missing %q", ErrUnknownRecord, name)
		}
	}

	present := 0
	for _, name := range floatingFields {
		if _, ok := fields[name]; ok {
			present++
		}
	}
	switch {
	case present == 0 && len(fields) == len(requiredFields):
		return RoleRequired, nil
	case present == len(floatingFields) && len(fields) == len(requiredFields)+len(floatingFields):
		return RoleFloating, nil
	case present != 0 && present != len(floatingFields):
		return 0, fmt.Errorf("%w: partial floating record", ErrUnknownRecord)
	}
	return 0, fmt.Errorf("%w: unexpected fields", ErrUnknownRecord)
}

func toInt(v uint64) (int, error) {
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: integer %d out of range", ErrCorruptRecord, v)
	}
	return int(v), nil
}
