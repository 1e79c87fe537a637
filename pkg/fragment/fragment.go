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

// Package fragment implements the byte algebra used to spread a secret
// across custodians.
//
// A Fragment is an immutable byte buffer. Split deals the bytes of a
// buffer round-robin into a number of parts and Join interleaves them
// back. Each onion layer placed on a fragment is a SHA3-512 digest
// appended to the buffer followed by AES-256-GCM encryption under one
// custodian's key; Peel removes a layer and reports whether the key was
// the right one.
//
//	parts, _ := fragment.Split(secret, 3)
//	whole, _ := fragment.Join(parts)   // bytes.Equal(whole, secret)
//
//	sealed, _ := fragment.New(secret).Seal(k)
//	opened, ok, _ := sealed.Peel(k)    // ok == true
package fragment

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"errors"

	"github.com/jeremyhahn/go-testament/pkg/key"
	"golang.org/x/crypto/sha3"
)

// HashSize is the number of bytes ApplyHash appends.
const HashSize = 64

// Fragment wraps a byte buffer. Every method returns a new Fragment and
// no two fragments share a backing array. The zero value is a "nil"
// fragment that Join rejects.
type Fragment struct {
	buf []byte
}

// New returns a fragment holding a copy of b. A nil b yields an empty,
// non-nil fragment.
func New(b []byte) Fragment {
	return Fragment{buf: clone(b)}
}

// Bytes returns a copy of the buffer.
func (f Fragment) Bytes() []byte {
	if f.buf == nil {
		return nil
	}
	return clone(f.buf)
}

// Len returns the buffer length.
func (f Fragment) Len() int {
	return len(f.buf)
}

// IsZero reports whether f is the zero value.
func (f Fragment) IsZero() bool {
	return f.buf == nil
}

// Split distributes whole across parts buffers: byte i goes to buffer
// i%parts at position i/parts. The first len(whole)%parts buffers get one
// extra byte, so the result is ordered by length, longest first.
func Split(whole []byte, parts int) ([]Fragment, error) {
	if whole == nil {
		return nil, ErrNilBuffer
	}
	if parts < 1 {
		return nil, ErrPartCount
	}

	minSize := len(whole) / parts
	big := len(whole) % parts

	bufs := make([][]byte, parts)
	for i := range bufs {
		size := minSize
		if i < big {
			size++
		}
		bufs[i] = make([]byte, size)
	}
	for i, b := range whole {
		bufs[i%parts][i/parts] = b
	}

	frags := make([]Fragment, parts)
	for i, b := range bufs {
		frags[i] = Fragment{buf: b}
	}
	return frags, nil
}

// Join is the inverse of Split. Fragment lengths must be non-increasing
// and the longest may exceed the shortest by at most two bytes.
func Join(fragments []Fragment) ([]byte, error) {
	if fragments == nil {
		return nil, ErrNilFragments
	}

	n := len(fragments)
	total := 0
	longest, shortest, last := 0, int(^uint(0)>>1), int(^uint(0)>>1)
	for _, f := range fragments {
		if f.IsZero() {
			return nil, ErrNilFragment
		}
		size := len(f.buf)
		if size > last {
			return nil, ErrNotDescending
		}
		longest = max(longest, size)
		shortest = min(shortest, size)
		last = size
		total += size
	}
	if n > 0 && longest > shortest+2 {
		return nil, ErrSizeSkew
	}

	// A skew of two passes the check above but leaves holes in the
	// interleave; every other accepted input is a valid Split result.
	for i, f := range fragments {
		want := total / n
		if i < total%n {
			want++
		}
		if len(f.buf) != want {
			return nil, ErrLayout
		}
	}

	whole := make([]byte, total)
	for i := range whole {
		whole[i] = fragments[i%n].buf[i/n]
	}
	return whole, nil
}

// Encrypt returns the fragment encrypted with AES-256-GCM under k's
// secret and nonce. The result is 16 bytes longer than f.
func (f Fragment) Encrypt(k *key.Key) (Fragment, error) {
	aead, err := newGCM(k, "encrypt")
	if err != nil {
		return Fragment{}, err
	}
	return Fragment{buf: aead.Seal(nil, k.Nonce(), f.buf, nil)}, nil
}

// Decrypt returns the fragment decrypted with k. A wrong key or tampered
// buffer yields a *CryptoError.
func (f Fragment) Decrypt(k *key.Key) (Fragment, error) {
	aead, err := newGCM(k, "decrypt")
	if err != nil {
		return Fragment{}, err
	}
	plain, err := aead.Open(nil, k.Nonce(), f.buf, nil)
	if err != nil {
		return Fragment{}, &CryptoError{Op: "decrypt", Err: err}
	}
	if plain == nil {
		plain = []byte{}
	}
	return Fragment{buf: plain}, nil
}

// ApplyHash appends the SHA3-512 digest of the buffer.
func (f Fragment) ApplyHash() Fragment {
	sum := sha3.Sum512(f.buf)
	buf := make([]byte, 0, len(f.buf)+HashSize)
	buf = append(buf, f.buf...)
	return Fragment{buf: append(buf, sum[:]...)}
}

// VerifyHash reports whether the trailing HashSize bytes are the SHA3-512
// digest of the bytes before them.
func (f Fragment) VerifyHash() bool {
	if len(f.buf) < HashSize {
		return false
	}
	split := len(f.buf) - HashSize
	sum := sha3.Sum512(f.buf[:split])
	return subtle.ConstantTimeCompare(sum[:], f.buf[split:]) == 1
}

// StripHash removes the trailing digest without checking it.
func (f Fragment) StripHash() (Fragment, error) {
	if len(f.buf) < HashSize {
		return Fragment{}, ErrHashMissing
	}
	return New(f.buf[:len(f.buf)-HashSize]), nil
}

// Seal adds one onion layer: ApplyHash then Encrypt.
func (f Fragment) Seal(k *key.Key) (Fragment, error) {
	return f.ApplyHash().Encrypt(k)
}

// Peel tries to remove the outermost onion layer with k. It reports false
// with a nil error when k is not the key for this layer, either because
// authentication failed or because the digest did not match. Any other
// failure is returned. f itself is never modified.
func (f Fragment) Peel(k *key.Key) (Fragment, bool, error) {
	opened, err := f.Decrypt(k)
	if err != nil {
		var cryptoErr *CryptoError
		if errors.As(err, &cryptoErr) {
			return Fragment{}, false, nil
		}
		return Fragment{}, false, err
	}
	if !opened.VerifyHash() {
		return Fragment{}, false, nil
	}
	stripped, err := opened.StripHash()
	if err != nil {
		return Fragment{}, false, err
	}
	return stripped, true, nil
}

func newGCM(k *key.Key, op string) (cipher.AEAD, error) {
	if k == nil {
		return nil, ErrNilKey
	}
	block, err := aes.NewCipher(k.Secret())
	if err != nil {
		return nil, &CryptoError{Op: op, Err: err}
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &CryptoError{Op: op, Err: err}
	}
	return aead, nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
