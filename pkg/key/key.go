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

// Package key provides the symmetric key material held by a custodian.
//
// A Key is an AES-256 secret paired with a 96-bit GCM nonce. Keys travel
// between processes in their aggregated form, the secret followed by the
// nonce (44 bytes), which is also how the main key of a will is itself
// protected and reconstructed.
package key

import (
	"crypto/rand"
	"fmt"
)

const (
	// SecretSize is the length of an AES-256 secret in bytes.
	SecretSize = 32

	// NonceSize is the length of a GCM nonce in bytes.
	NonceSize = 12

	// AggregatedSize is the length of secret || nonce.
	AggregatedSize = SecretSize + NonceSize
)

// Key is an immutable secret and nonce owned by a custodian. The zero
// value is not usable; construct keys with Generate, FromParts or
// FromAggregated.
type Key struct {
	custodian string
	secret    []byte
	nonce     []byte
}

// Generate creates a fresh key for the custodian from the system CSPRNG.
func Generate(custodian string) (*Key, error) {
	secret := make([]byte, SecretSize)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("key: failed to generate secret: %w", err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("key: failed to generate nonce: %w", err)
	}
	return &Key{custodian: custodian, secret: secret, nonce: nonce}, nil
}

// FromParts builds a key from a stored secret and nonce. Both slices are
// copied.
func FromParts(custodian string, secret, nonce []byte) (*Key, error) {
	if len(secret) != SecretSize {
		return nil, fmt.Errorf("%w: secret must be %d bytes, got %d",
			ErrInvalidKeyMaterial, SecretSize, len(secret))
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d",
			ErrInvalidKeyMaterial, NonceSize, len(nonce))
	}
	return &Key{
		custodian: custodian,
		secret:    clone(secret),
		nonce:     clone(nonce),
	}, nil
}

// FromAggregated rebuilds a key from secret || nonce. The trailing
// NonceSize bytes are the nonce and everything before them is the secret.
func FromAggregated(custodian string, buf []byte) (*Key, error) {
	if len(buf) <= NonceSize {
		return nil, fmt.Errorf("%w: aggregated buffer of %d bytes is too short",
			ErrInvalidKeyMaterial, len(buf))
	}
	split := len(buf) - NonceSize
	return FromParts(custodian, buf[:split], buf[split:])
}

// Custodian returns the name of the key holder. It may be empty for keys
// that are not tied to a person, such as the main key.
func (k *Key) Custodian() string {
	return k.custodian
}

// Secret returns a copy of the AES secret.
func (k *Key) Secret() []byte {
	return clone(k.secret)
}

// Nonce returns a copy of the GCM nonce.
func (k *Key) Nonce() []byte {
	return clone(k.nonce)
}

// Aggregated returns secret || nonce.
func (k *Key) Aggregated() []byte {
	buf := make([]byte, 0, len(k.secret)+len(k.nonce))
	buf = append(buf, k.secret...)
	return append(buf, k.nonce...)
}

// Merge combines keys by XOR-ing their secrets and their nonces. Shorter
// inputs are treated as zero-padded to the longest. The workflows in
// package will do not use it.
func Merge(custodian string, keys ...*Key) (*Key, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: no keys to merge", ErrInvalidKeyMaterial)
	}
	var secret, nonce []byte
	for _, k := range keys {
		if k == nil {
			return nil, fmt.Errorf("%w: cannot merge a nil key", ErrInvalidKeyMaterial)
		}
		secret = xor(secret, k.secret)
		nonce = xor(nonce, k.nonce)
	}
	return FromParts(custodian, secret, nonce)
}

func xor(a, b []byte) []byte {
	n := max(len(a), len(b))
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		var x, y byte
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		out[i] = x ^ y
	}
	return out
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
