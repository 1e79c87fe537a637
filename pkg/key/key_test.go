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

package key

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	k, err := Generate("alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", k.Custodian())
	assert.Len(t, k.Secret(), SecretSize)
	assert.Len(t, k.Nonce(), NonceSize)

	other, err := Generate("alice")
	require.NoError(t, err)
	assert.NotEqual(t, k.Secret(), other.Secret(), "two generated secrets should differ")
}

func TestFromParts(t *testing.T) {
	tests := []struct {
		name    string
		secret  []byte
		nonce   []byte
		wantErr bool
	}{
		{name: "valid", secret: make([]byte, 32), nonce: make([]byte, 12)},
		{name: "short secret", secret: make([]byte, 16), nonce: make([]byte, 12), wantErr: true},
		{name: "long nonce", secret: make([]byte, 32), nonce: make([]byte, 16), wantErr: true},
		{name: "nil secret", secret: nil, nonce: make([]byte, 12), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := FromParts("bob", tt.secret, tt.nonce)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidKeyMaterial)
				assert.Nil(t, k)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "bob", k.Custodian())
		})
	}
}

func TestFromPartsCopiesInput(t *testing.T) {
	secret := bytes.Repeat([]byte{0x01}, SecretSize)
	nonce := bytes.Repeat([]byte{0x02}, NonceSize)

	k, err := FromParts("carol", secret, nonce)
	require.NoError(t, err)

	secret[0] = 0xff
	nonce[0] = 0xff
	assert.Equal(t, byte(0x01), k.Secret()[0])
	assert.Equal(t, byte(0x02), k.Nonce()[0])

	// Mutating an accessor result must not leak back either.
	k.Secret()[1] = 0xff
	assert.Equal(t, byte(0x01), k.Secret()[1])
}

func TestAggregatedRoundTrip(t *testing.T) {
	k, err := Generate("dave")
	require.NoError(t, err)

	agg := k.Aggregated()
	require.Len(t, agg, AggregatedSize)
	assert.Equal(t, k.Secret(), agg[:SecretSize])
	assert.Equal(t, k.Nonce(), agg[SecretSize:])

	rebuilt, err := FromAggregated("dave", agg)
	require.NoError(t, err)
	assert.Equal(t, k.Secret(), rebuilt.Secret())
	assert.Equal(t, k.Nonce(), rebuilt.Nonce())
}

func TestFromAggregatedInvalid(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "nil", buf: nil},
		{name: "nonce only", buf: make([]byte, NonceSize)},
		{name: "truncated secret", buf: make([]byte, NonceSize+1)},
		{name: "oversized", buf: make([]byte, AggregatedSize+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromAggregated("erin", tt.buf)
			assert.ErrorIs(t, err, ErrInvalidKeyMaterial)
		})
	}
}

func TestMerge(t *testing.T) {
	a, err := FromParts("a", bytes.Repeat([]byte{0x0f}, SecretSize), bytes.Repeat([]byte{0xf0}, NonceSize))
	require.NoError(t, err)
	b, err := FromParts("b", bytes.Repeat([]byte{0xff}, SecretSize), bytes.Repeat([]byte{0xff}, NonceSize))
	require.NoError(t, err)

	merged, err := Merge("ab", a, b)
	require.NoError(t, err)
	assert.Equal(t, "ab", merged.Custodian())
	assert.Equal(t, bytes.Repeat([]byte{0xf0}, SecretSize), merged.Secret())
	assert.Equal(t, bytes.Repeat([]byte{0x0f}, NonceSize), merged.Nonce())

	// XOR with itself cancels out.
	self, err := Merge("", a, a)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, SecretSize), self.Secret())
}

func TestMergeInvalid(t *testing.T) {
	_, err := Merge("none")
	assert.ErrorIs(t, err, ErrInvalidKeyMaterial)

	k, err := Generate("x")
	require.NoError(t, err)
	_, err = Merge("nil", k, nil)
	assert.ErrorIs(t, err, ErrInvalidKeyMaterial)
}

func TestXorPadsShorterInput(t *testing.T) {
	out := xor([]byte{0x01, 0x02, 0x03}, []byte{0x01})
	assert.Equal(t, []byte{0x00, 0x02, 0x03}, out)
}
