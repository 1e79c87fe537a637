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
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/jeremyhahn/go-testament/pkg/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var vectorPlaintext = []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77}

func vectorKey(t *testing.T) *key.Key {
	t.Helper()
	secret, err := base64.StdEncoding.DecodeString("cfVSPNqcgU/O5BamqxHalbXcTfMh14XEyU7y5rpdqs4=")
	require.NoError(t, err)
	nonce, err := base64.StdEncoding.DecodeString("qVDYwQNbiWk1xoGJ")
	require.NoError(t, err)
	k, err := key.FromParts("alice", secret, nonce)
	require.NoError(t, err)
	return k
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func fragments(bufs ...[]byte) []Fragment {
	out := make([]Fragment, len(bufs))
	for i, b := range bufs {
		out[i] = New(b)
	}
	return out
}

func TestSplit(t *testing.T) {
	whole := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	want := [][]byte{
		{0x01, 0xab},
		{0x23, 0xcd},
		{0x45, 0xef},
		{0x67},
		{0x89},
	}

	parts, err := Split(whole, 5)
	require.NoError(t, err)
	require.Len(t, parts, 5)
	for i := range parts {
		assert.Equal(t, want[i], parts[i].Bytes(), "part %d", i)
	}
}

func TestSplitErrors(t *testing.T) {
	_, err := Split(nil, 1)
	assert.ErrorIs(t, err, ErrNilBuffer)
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = Split([]byte{}, 0)
	assert.ErrorIs(t, err, ErrPartCount)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestSplitEmptyAndOversized(t *testing.T) {
	parts, err := Split([]byte{}, 3)
	require.NoError(t, err)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.False(t, p.IsZero())
		assert.Equal(t, 0, p.Len())
	}

	parts, err = Split([]byte{0xaa, 0xbb}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0, 0}, lengths(parts))

	joined, err := Join(parts)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa, 0xbb}, joined)
}

func TestSplitLengthsNonIncreasing(t *testing.T) {
	for size := 0; size < 40; size++ {
		whole := make([]byte, size)
		for parts := 1; parts <= 9; parts++ {
			frags, err := Split(whole, parts)
			require.NoError(t, err)
			ls := lengths(frags)
			for i := 1; i < len(ls); i++ {
				assert.LessOrEqual(t, ls[i], ls[i-1], "size=%d parts=%d", size, parts)
				assert.LessOrEqual(t, ls[0]-ls[i], 1, "size=%d parts=%d", size, parts)
			}
		}
	}
}

func TestJoin(t *testing.T) {
	want := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}
	got, err := Join(fragments(
		[]byte{0x01, 0xab},
		[]byte{0x23, 0xcd},
		[]byte{0x45, 0xef},
		[]byte{0x67},
		[]byte{0x89},
	))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJoinErrors(t *testing.T) {
	tests := []struct {
		name  string
		frags []Fragment
		want  error
	}{
		{
			name:  "nil list",
			frags: nil,
			want:  ErrNilFragments,
		},
		{
			name:  "zero fragment",
			frags: []Fragment{New([]byte{0x01}), {}},
			want:  ErrNilFragment,
		},
		{
			name: "size skew",
			frags: fragments(
				[]byte{0x01, 0xab, 0x2b, 0xad},
				[]byte{0x23, 0xcd},
				[]byte{0x45, 0xef},
				[]byte{0x67},
				[]byte{0x89},
			),
			want: ErrSizeSkew,
		},
		{
			name: "increasing length",
			frags: fragments(
				[]byte{0x23, 0xcd},
				[]byte{0x01, 0x2b, 0xad},
				[]byte{0x45, 0xef},
				[]byte{0x67},
				[]byte{0x89},
			),
			want: ErrNotDescending,
		},
		{
			name:  "skew of exactly two",
			frags: fragments([]byte{1, 2, 3}, []byte{4}),
			want:  ErrLayout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Join(tt.frags)
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrBadRequest)
			assert.Nil(t, got)
		})
	}
}

func TestJoinEmptyList(t *testing.T) {
	got, err := Join([]Fragment{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSplitJoinRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 7, 44, 108, 257} {
		whole := make([]byte, size)
		_, err := rand.Read(whole)
		require.NoError(t, err)

		for parts := 1; parts <= 12; parts++ {
			frags, err := Split(whole, parts)
			require.NoError(t, err)
			joined, err := Join(frags)
			require.NoError(t, err)
			assert.Equal(t, whole, joined, "size=%d parts=%d", size, parts)
		}
	}
}

func TestJoinOfSubsetResplits(t *testing.T) {
	// Dropping one part and re-joining the rest must be reversible with a
	// split into one fewer part; reconstruction relies on it.
	whole := make([]byte, 108)
	_, err := rand.Read(whole)
	require.NoError(t, err)

	for n := 2; n <= 7; n++ {
		parts, err := Split(whole, n)
		require.NoError(t, err)
		for skip := 0; skip < n; skip++ {
			rest := make([]Fragment, 0, n-1)
			for i, p := range parts {
				if i != skip {
					rest = append(rest, p)
				}
			}
			merged, err := Join(rest)
			require.NoError(t, err)

			again, err := Split(merged, n-1)
			require.NoError(t, err)
			for i := range rest {
				assert.Equal(t, rest[i].Bytes(), again[i].Bytes(), "n=%d skip=%d part=%d", n, skip, i)
			}
		}
	}
}

func TestEncryptVector(t *testing.T) {
	want := mustHex(t, "bd939f4c327f0eb7f4bd5bbd7bd36707835004d19448ea94")

	sealed, err := New(vectorPlaintext).Encrypt(vectorKey(t))
	require.NoError(t, err)
	assert.Equal(t, want, sealed.Bytes())

	opened, err := New(want).Decrypt(vectorKey(t))
	require.NoError(t, err)
	assert.Equal(t, vectorPlaintext, opened.Bytes())
}

func TestDecryptFailures(t *testing.T) {
	k := vectorKey(t)
	sealed, err := New(vectorPlaintext).Encrypt(k)
	require.NoError(t, err)

	wrong, err := key.Generate("mallory")
	require.NoError(t, err)
	_, err = sealed.Decrypt(wrong)
	require.ErrorIs(t, err, ErrCryptoOperation)
	var cryptoErr *CryptoError
	require.ErrorAs(t, err, &cryptoErr)
	assert.Equal(t, "decrypt", cryptoErr.Op)

	tampered := sealed.Bytes()
	tampered[3] ^= 0x01
	_, err = New(tampered).Decrypt(k)
	assert.ErrorIs(t, err, ErrCryptoOperation)

	_, err = sealed.Decrypt(nil)
	assert.ErrorIs(t, err, ErrNilKey)
	assert.NotErrorIs(t, err, ErrCryptoOperation)
}

func TestEncryptDoesNotAlias(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	f := New(src)
	src[0] = 9
	assert.Equal(t, byte(1), f.Bytes()[0])

	out := f.Bytes()
	out[1] = 9
	assert.Equal(t, byte(2), f.Bytes()[1])

	_, err := f.Encrypt(vectorKey(t))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, f.Bytes())
}

func TestHashVector(t *testing.T) {
	digest := mustHex(t, "f2ae2462972e686315b1c332e54d74fcf5ee4a92d364a9842d30b822d4aeec79"+
		"10f8e1f196199a17a8b9896501e09a53e9a3415186640fded97542d1d61115df")

	hashed := New(vectorPlaintext).ApplyHash()
	require.Equal(t, len(vectorPlaintext)+HashSize, hashed.Len())
	assert.Equal(t, vectorPlaintext, hashed.Bytes()[:8])
	assert.Equal(t, digest, hashed.Bytes()[8:])
	assert.True(t, hashed.VerifyHash())

	for i := 8; i < hashed.Len(); i++ {
		b := hashed.Bytes()
		b[i] ^= 0x80
		assert.False(t, New(b).VerifyHash(), "flipped digest byte %d", i)
	}
}

func TestHashDetectsBodyFlip(t *testing.T) {
	hashed := New(vectorPlaintext).ApplyHash()
	for i := 0; i < len(vectorPlaintext); i++ {
		b := hashed.Bytes()
		b[i] ^= 0x01
		assert.False(t, New(b).VerifyHash(), "flipped body byte %d", i)
	}
}

func TestStripHash(t *testing.T) {
	stripped, err := New(vectorPlaintext).ApplyHash().StripHash()
	require.NoError(t, err)
	assert.Equal(t, vectorPlaintext, stripped.Bytes())

	_, err = New(make([]byte, HashSize-1)).StripHash()
	assert.ErrorIs(t, err, ErrHashMissing)

	assert.False(t, New(make([]byte, HashSize-1)).VerifyHash())
}

func TestSealPeel(t *testing.T) {
	k := vectorKey(t)
	wrong, err := key.Generate("mallory")
	require.NoError(t, err)

	sealed, err := New(vectorPlaintext).Seal(k)
	require.NoError(t, err)
	assert.Equal(t, len(vectorPlaintext)+HashSize+16, sealed.Len())

	_, ok, err := sealed.Peel(wrong)
	require.NoError(t, err)
	assert.False(t, ok)

	peeled, ok, err := sealed.Peel(k)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vectorPlaintext, peeled.Bytes())

	// Correct key but no digest underneath: authenticated, yet not a layer.
	bare, err := New(vectorPlaintext).Encrypt(k)
	require.NoError(t, err)
	_, ok, err = bare.Peel(k)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = sealed.Peel(nil)
	assert.ErrorIs(t, err, ErrNilKey)
}

func TestPeelNestedLayers(t *testing.T) {
	inner, err := key.Generate("inner")
	require.NoError(t, err)
	outer, err := key.Generate("outer")
	require.NoError(t, err)

	f, err := New(vectorPlaintext).Seal(inner)
	require.NoError(t, err)
	f, err = f.Seal(outer)
	require.NoError(t, err)

	_, ok, err := f.Peel(inner)
	require.NoError(t, err)
	assert.False(t, ok, "inner key must not open the outer layer")

	f, ok, err = f.Peel(outer)
	require.NoError(t, err)
	require.True(t, ok)
	f, ok, err = f.Peel(inner)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vectorPlaintext, f.Bytes())
}

func lengths(frags []Fragment) []int {
	out := make([]int, len(frags))
	for i, f := range frags {
		out[i] = f.Len()
	}
	return out
}
