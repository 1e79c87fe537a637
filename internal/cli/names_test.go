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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"alice":             "alice",
		"  Alice ":          "alice",
		"Mary   Ann\tSmith": "mary ann smith",
		"\n":                "",
		"ÉLODIE":            "élodie",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in), "NormalizeName(%q)", in)
	}
}

func TestNormalizeNames(t *testing.T) {
	got, err := normalizeNames([]string{"Executor"}, []string{"alice", " Bob "})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"executor"}, {"alice", "bob"}}, got)

	got, err = normalizeNames(nil, []string{"a", "b"})
	require.NoError(t, err)
	assert.Empty(t, got[0])

	_, err = normalizeNames([]string{"Alice"}, []string{"alice"})
	assert.True(t, errors.Is(err, ErrUsage))

	_, err = normalizeNames([]string{" "})
	assert.True(t, errors.Is(err, ErrUsage))
}
