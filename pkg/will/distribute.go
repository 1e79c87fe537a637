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
	"context"
	"fmt"

	"github.com/jeremyhahn/go-testament/pkg/fragment"
	"github.com/jeremyhahn/go-testament/pkg/key"
	"github.com/jeremyhahn/go-testament/pkg/parcel"
)

// mainKeyName labels the ephemeral key in errors; it is never persisted.
const mainKeyName = "main"

// DistributionRequest describes one will.
type DistributionRequest struct {
	Plaintext []byte
	// Required custodians must all take part in reconstruction.
	Required []string
	// Floating custodians; at least MinFloating of them must take part.
	Floating    []string
	MinFloating int
}

// Validate checks the custodian lists and threshold.
func (r *DistributionRequest) Validate() error {
	n := len(r.Floating)
	if n < 2 {
		return fmt.Errorf("%w: at least two floating custodians are required, got %d", ErrInvalidRequest, n)
	}
	if n > parcel.MaxFloaters {
		return fmt.Errorf("%w: at most %d floating custodians are supported, got %d", ErrInvalidRequest, parcel.MaxFloaters, n)
	}
	if r.MinFloating < 1 || r.MinFloating > n {
		return fmt.Errorf("%w: minimum floating custodians must be between 1 and %d, got %d",
			ErrInvalidRequest, n, r.MinFloating)
	}

	seen := make(map[string]struct{}, len(r.Required)+n)
	for _, list := range [][]string{r.Required, r.Floating} {
		for _, name := range list {
			if name == "" {
				return fmt.Errorf("%w: custodian name is empty", ErrInvalidRequest)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("%w: custodian %q listed more than once", ErrInvalidRequest, name)
			}
			seen[name] = struct{}{}
		}
	}
	return nil
}

// Distribution is the set of parcels produced for one will.
type Distribution struct {
	Required []*parcel.Parcel
	Floating []*parcel.FloatingParcel
}

// Records returns every parcel, required first, as Records.
func (d *Distribution) Records() []parcel.Record {
	out := make([]parcel.Record, 0, len(d.Required)+len(d.Floating))
	for _, p := range d.Required {
		out = append(out, p)
	}
	for _, p := range d.Floating {
		out = append(out, p)
	}
	return out
}

// Distribute encrypts req.Plaintext and produces one parcel per custodian.
//
// The ciphertext and the hashed main key are each split into N fragments.
// The hashed main key is sealed once per required custodian and hashed
// again before splitting, so each required key encrypts exactly one
// buffer. Floating custodian i receives every fragment except fragment i,
// merged. Its key share is wrapped, once per combination of M-1 other
// floating custodians, in one layer per custodian in that combination. Any
// M floaters can therefore strip their own variant for the coalition they
// form and between them hold every fragment of the protected key.
func Distribute(ctx context.Context, req DistributionRequest, opts ...Option) (*Distribution, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts)
	n, m := len(req.Floating), req.MinFloating

	mainKey, err := key.Generate(mainKeyName)
	if err != nil {
		return nil, err
	}
	ciphertext, err := fragment.New(req.Plaintext).Seal(mainKey)
	if err != nil {
		return nil, err
	}

	requiredKeys, err := generateKeys(req.Required)
	if err != nil {
		return nil, err
	}
	floatingKeys, err := generateKeys(req.Floating)
	if err != nil {
		return nil, err
	}

	keyBlob, err := protectMainKey(mainKey, requiredKeys)
	if err != nil {
		return nil, err
	}

	ctParts, err := fragment.Split(ciphertext.Bytes(), n)
	if err != nil {
		return nil, err
	}
	keyParts, err := fragment.Split(keyBlob.Bytes(), n)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("distributing will",
		"required", len(req.Required), "floating", n, "minimum", m,
		"variants_per_floater", binomial(n-1, m-1))

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	dist := &Distribution{
		Required: make([]*parcel.Parcel, len(req.Required)),
		Floating: make([]*parcel.FloatingParcel, n),
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ctShare, err := fragment.Join(without(ctParts, i))
		if err != nil {
			return nil, err
		}
		keyShare, err := fragment.Join(without(keyParts, i))
		if err != nil {
			return nil, err
		}

		protected := fragment.New(keyShare)
		combos := combinations(without(indices, i), m-1)
		variants := make([][]byte, 0, len(combos))
		for _, combo := range combos {
			variant := protected
			for _, j := range combo {
				if variant, err = variant.Seal(floatingKeys[j]); err != nil {
					return nil, err
				}
			}
			variants = append(variants, variant.Bytes())
		}

		dist.Floating[i] = &parcel.FloatingParcel{
			Parcel: parcel.Parcel{
				Custodian: req.Floating[i],
				Key:       floatingKeys[i].Aggregated(),
				Ordinal:   i,
			},
			Ciphertext:   ctShare,
			KeyFragments: variants,
			FloaterCount: n,
		}
	}

	for i, rk := range requiredKeys {
		dist.Required[i] = &parcel.Parcel{
			Custodian: req.Required[i],
			Key:       rk.Aggregated(),
			Ordinal:   i,
		}
	}
	return dist, nil
}

// protectMainKey hashes the aggregated main key, seals it under every
// required key in order and appends an outer digest that lets a joined
// share be checked before any required layer is peeled.
func protectMainKey(mainKey *key.Key, requiredKeys []*key.Key) (fragment.Fragment, error) {
	blob := fragment.New(mainKey.Aggregated()).ApplyHash()
	for _, rk := range requiredKeys {
		var err error
		if blob, err = blob.Seal(rk); err != nil {
			return fragment.Fragment{}, err
		}
	}
	return blob.ApplyHash(), nil
}

func generateKeys(names []string) ([]*key.Key, error) {
	keys := make([]*key.Key, len(names))
	for i, name := range names {
		k, err := key.Generate(name)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}
