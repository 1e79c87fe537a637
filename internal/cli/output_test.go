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
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPrinter_YAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter("YAML", &buf)

	require.NoError(t, p.PrintDecryptResult(&DecryptResult{WillID: "w", Output: "/o", Bytes: 3, Parcels: 2}))

	var got DecryptResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, DecryptResult{WillID: "w", Output: "/o", Bytes: 3, Parcels: 2}, got)
}

func TestPrinter_EncryptText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter("text", &buf)

	require.NoError(t, p.PrintEncryptResult(&EncryptResult{
		WillID:      "abc",
		Directory:   "/wills",
		MinFloating: 2,
		Floating:    []string{"alice", "bob"},
		Files:       []string{"alice.key", "bob.key"},
	}))
	out := buf.String()
	assert.Contains(t, out, "Required:     (none)")
	assert.Contains(t, out, "Floating:     alice, bob (any 2)")
	assert.Contains(t, out, "  - bob.key")
}

func TestPrinter_ParcelsText(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter("text", &buf)

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, p.PrintParcels([]*ParcelInfo{
		{File: "executor.key", Role: "required", Custodian: "executor", CreatedAt: created},
		{File: "alice.key", Role: "floating", Custodian: "alice", CreatedAt: created,
			FloaterCount: 3, Variants: 2, VariantSize: 100, CiphertextSize: 50},
	}))
	out := buf.String()
	assert.Contains(t, out, "Created:      2025-03-01T12:00:00Z")
	assert.Contains(t, out, "Variants:     2 x 100 bytes")
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("Floaters:")))
}

func TestPrinter_UnknownFormat(t *testing.T) {
	p := NewPrinter("xml", &bytes.Buffer{})
	assert.Error(t, p.PrintVersion(&VersionInfo{}))
	assert.Error(t, p.PrintParcels(nil))
}

func TestPrinter_Error(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter("json", &buf).PrintError(errors.New("boom")))
	assert.JSONEq(t, `{"status":"error","error":"boom"}`, buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter("text", &buf).PrintError(errors.New("boom")))
	assert.Equal(t, "Error: boom\n", buf.String())
}
