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

package file

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-testament/pkg/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*FileStorage, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	s, err := New(fsys, "/wills")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, fsys
}

func TestNew(t *testing.T) {
	fsys := afero.NewMemMapFs()
	s, err := New(fsys, "/var/lib/testament/../testament")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/testament", s.Root())

	ok, err := afero.DirExists(fsys, "/var/lib/testament")
	require.NoError(t, err)
	assert.True(t, ok)

	var _ storage.Backend = s
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil, "/wills")
	assert.Error(t, err)

	_, err = New(afero.NewMemMapFs(), "")
	assert.Error(t, err)

	_, err = New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/wills")
	assert.Error(t, err)
}

func TestPutGet(t *testing.T) {
	s, fsys := newTestStorage(t)

	tests := []struct {
		name  string
		key   string
		value []byte
	}{
		{name: "flat", key: "alice.key", value: []byte{0xa1, 0x00, 0xff}},
		{name: "empty value", key: "empty.key", value: []byte{}},
		{name: "nested", key: "archive/bob.key", value: []byte("bob")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, s.Put(tt.key, tt.value, nil))

			got, err := s.Get(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)

			info, err := fsys.Stat("/wills/" + tt.key)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.value)), info.Size())
		})
	}
}

func TestPutPermissions(t *testing.T) {
	s, fsys := newTestStorage(t)

	require.NoError(t, s.Put("default.key", []byte("x"), nil))
	info, err := fsys.Stat("/wills/default.key")
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	require.NoError(t, s.Put("shared.key", []byte("x"), &storage.Options{Permissions: 0640, Overwrite: true}))
	info, err = fsys.Stat("/wills/shared.key")
	require.NoError(t, err)
	assert.Equal(t, "-rw-r-----", info.Mode().Perm().String())
}

func TestPutOverwrite(t *testing.T) {
	s, _ := newTestStorage(t)

	require.NoError(t, s.Put("carol.key", []byte("v1"), nil))
	require.NoError(t, s.Put("carol.key", []byte("v2"), storage.DefaultOptions()))

	got, err := s.Get("carol.key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	err = s.Put("carol.key", []byte("v3"), &storage.Options{Overwrite: false})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err = s.Get("carol.key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestGetNotFound(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Get("nobody.key")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInvalidKeys(t *testing.T) {
	s, _ := newTestStorage(t)

	for _, key := range []string{"", "../escape.key", "/abs.key"} {
		_, err := s.Get(key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "Get(%q)", key)
		assert.ErrorIs(t, s.Put(key, []byte("x"), nil), storage.ErrInvalidKey, "Put(%q)", key)
		assert.ErrorIs(t, s.Delete(key), storage.ErrInvalidKey, "Delete(%q)", key)
		_, err = s.Exists(key)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, "Exists(%q)", key)
	}
}

func TestDelete(t *testing.T) {
	s, _ := newTestStorage(t)

	require.NoError(t, s.Put("dave.key", []byte("d"), nil))
	require.NoError(t, s.Delete("dave.key"))

	ok, err := s.Exists("dave.key")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Delete("dave.key"), storage.ErrNotFound)
}

func TestList(t *testing.T) {
	s, _ := newTestStorage(t)

	for _, k := range []string{"zed.key", "alice.key", "notes.txt", "archive/old.key"} {
		require.NoError(t, s.Put(k, []byte(k), nil))
	}

	all, err := s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice.key", "archive/old.key", "notes.txt", "zed.key"}, all)

	archived, err := s.List("archive/")
	require.NoError(t, err)
	assert.Equal(t, []string{"archive/old.key"}, archived)

	none, err := s.List("missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestClosed(t *testing.T) {
	s, _ := newTestStorage(t)
	require.NoError(t, s.Close())

	_, err := s.Get("a.key")
	assert.ErrorIs(t, err, storage.ErrClosed)
	assert.ErrorIs(t, s.Put("a.key", nil, nil), storage.ErrClosed)
	assert.ErrorIs(t, s.Delete("a.key"), storage.ErrClosed)
	_, err = s.List("")
	assert.ErrorIs(t, err, storage.ErrClosed)
	_, err = s.Exists("a.key")
	assert.ErrorIs(t, err, storage.ErrClosed)

	assert.NoError(t, s.Close())
}

func TestReadOnlyFilesystem(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/wills", 0700))
	require.NoError(t, afero.WriteFile(base, "/wills/erin.key", []byte("e"), 0600))

	s, err := New(afero.NewReadOnlyFs(base), "/wills")
	require.NoError(t, err)

	got, err := s.Get("erin.key")
	require.NoError(t, err)
	assert.Equal(t, []byte("e"), got)

	err = s.Put("frank.key", []byte("f"), nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrInvalidKey)
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := newTestStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("custodian-%02d.key", i)
			assert.NoError(t, s.Put(key, []byte(key), nil))
			got, err := s.Get(key)
			assert.NoError(t, err)
			assert.Equal(t, []byte(key), got)
		}(i)
	}
	wg.Wait()

	keys, err := s.List("custodian-")
	require.NoError(t, err)
	assert.Len(t, keys, 16)
}
