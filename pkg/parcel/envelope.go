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
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

// EnvelopeVersion is the format version written by Marshal.
const EnvelopeVersion = 1

// ChecksumSize is the length of an envelope checksum.
const ChecksumSize = 32

// checksumDomainKey keys the BLAKE3 checksum so a record body hash can
// never be confused with a hash taken in another context. ASCII of the
// domain name, zero padded to 32 bytes.
var checksumDomainKey = [32]byte{
	'g', 'o', '-', 't', 'e', 's', 't', 'a', 'm', 'e', 'n', 't', '.', 'p', 'a', 'r',
	'c', 'e', 'l', '.', 'b', 'o', 'd', 'y', 0, 0, 0, 0, 0, 0, 0, 0,
}

// Meta is the will-level information stamped on every record.
type Meta struct {
	WillID      uuid.UUID
	Description string
	CreatedAt   time.Time
}

// NewMeta returns Meta with a fresh random will ID and the current time.
func NewMeta(description string) Meta {
	return Meta{
		WillID:      uuid.New(),
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

type envelope struct {
	Version     uint64          `cbor:"version"`
	WillID      string          `cbor:"will_id"`
	Description string          `cbor:"description"`
	CreatedAt   int64           `cbor:"created_at"`
	Body        cbor.RawMessage `cbor:"body"`
	Checksum    []byte          `cbor:"checksum"`
}

// Checksum returns the keyed BLAKE3-256 digest of a record body.
func Checksum(body []byte) []byte {
	h, err := blake3.NewKeyed(checksumDomainKey[:])
	if err != nil {
		panic("parcel: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = h.Write(body)
	return h.Sum(nil)
}

// Marshal wraps r in an envelope carrying meta and encodes it.
func Marshal(meta Meta, r Record) ([]byte, error) {
	body, err := MarshalRecord(r)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(envelope{
		Version:     EnvelopeVersion,
		WillID:      meta.WillID.String(),
		Description: meta.Description,
		CreatedAt:   meta.CreatedAt.Unix(),
		Body:        body,
		Checksum:    Checksum(body),
	})
}

// Unmarshal decodes an envelope, verifies its checksum and classifies the
// record inside.
func Unmarshal(data []byte) (Meta, Record, error) {
	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return Meta{}, nil, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if env.Version == 0 || len(env.Body) == 0 {
		return Meta{}, nil, fmt.Errorf("%w: not a parcel envelope", ErrCorruptRecord)
	}
	if env.Version > EnvelopeVersion {
		return Meta{}, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if subtle.ConstantTimeCompare(Checksum(env.Body), env.Checksum) != 1 {
		return Meta{}, nil, fmt.Errorf("%w: checksum mismatch", ErrCorruptRecord)
	}

	willID, err := uuid.Parse(env.WillID)
	if err != nil {
		return Meta{}, nil, fmt.Errorf("%w: will id: %v", ErrCorruptRecord, err)
	}

	rec, err := UnmarshalRecord(env.Body)
	if err != nil {
		return Meta{}, nil, err
	}

	return Meta{
		WillID:      willID,
		Description: env.Description,
		CreatedAt:   time.Unix(env.CreatedAt, 0).UTC(),
	}, rec, nil
}
