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

// Package will distributes a secret among custodians and reconstructs it.
//
// Distribute encrypts the plaintext under an ephemeral main key and deals
// the ciphertext and the main key to N floating custodians so that the
// main key can only be rebuilt by every required custodian together with
// at least M floating custodians. Reconstruct takes whatever parcels were
// collected, works out by trial decryption which custodians they belong
// to and which onion layers they can remove, and rebuilds the plaintext.
package will

import (
	"github.com/jeremyhahn/go-testament/pkg/logging"
)

// Option configures Distribute and Reconstruct.
type Option func(*options)

type options struct {
	logger *logging.Logger
}

// WithLogger sends engine progress to l at debug level. Key material is
// never logged.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
