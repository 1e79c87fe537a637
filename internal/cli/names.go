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

package cli

import (
	"fmt"
	"strings"
)

// NormalizeName trims a custodian name, collapses internal whitespace to
// single spaces and lower-cases it.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// normalizeNames normalizes every list and rejects empty names and names
// that appear more than once across all lists.
func normalizeNames(lists ...[]string) ([][]string, error) {
	seen := make(map[string]struct{})
	out := make([][]string, len(lists))
	for i, list := range lists {
		out[i] = make([]string, 0, len(list))
		for _, raw := range list {
			name := NormalizeName(raw)
			if name == "" {
				return nil, fmt.Errorf("%w: custodian name %q is empty", ErrUsage, raw)
			}
			if _, dup := seen[name]; dup {
				return nil, fmt.Errorf("%w: custodian %q listed more than once", ErrUsage, name)
			}
			seen[name] = struct{}{}
			out[i] = append(out[i], name)
		}
	}
	return out, nil
}
