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

import "errors"

// ErrInvalidKeyMaterial is returned when a secret, nonce or aggregated
// buffer has the wrong shape.
var ErrInvalidKeyMaterial = errors.New("key: invalid key material")
