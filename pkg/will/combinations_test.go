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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinations(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		k     int
		want  [][]int
	}{
		{
			name:  "pairs of four",
			items: []int{0, 1, 2, 3},
			k:     2,
			want:  [][]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}},
		},
		{
			name:  "keeps item values",
			items: []int{0, 2, 5},
			k:     2,
			want:  [][]int{{0, 2}, {0, 5}, {2, 5}},
		},
		{name: "zero of many", items: []int{1, 2, 3}, k: 0, want: [][]int{{}}},
		{name: "zero of none", items: nil, k: 0, want: [][]int{{}}},
		{name: "all", items: []int{4, 7}, k: 2, want: [][]int{{4, 7}}},
		{name: "too many", items: []int{1}, k: 2, want: nil},
		{name: "negative", items: []int{1}, k: -1, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, combinations(tt.items, tt.k))
		})
	}
}

func TestCombinationsCount(t *testing.T) {
	for n := 0; n <= 8; n++ {
		items := make([]int, n)
		for i := range items {
			items[i] = i
		}
		for k := 0; k <= n; k++ {
			assert.Len(t, combinations(items, k), binomial(n, k), "n=%d k=%d", n, k)
		}
	}
}

func TestBinomial(t *testing.T) {
	assert.Equal(t, 1, binomial(5, 0))
	assert.Equal(t, 10, binomial(5, 2))
	assert.Equal(t, 10, binomial(5, 3))
	assert.Equal(t, 1, binomial(5, 5))
	assert.Equal(t, 0, binomial(5, 6))
	assert.Equal(t, 0, binomial(5, -1))
	assert.Equal(t, 184756, binomial(20, 10))
}

func TestWithout(t *testing.T) {
	s := []int{1, 2, 3}
	assert.Equal(t, []int{2, 3}, without(s, 0))
	assert.Equal(t, []int{1, 3}, without(s, 1))
	assert.Equal(t, []int{1, 2}, without(s, 2))
	assert.Equal(t, []int{1, 2, 3}, s)
}
