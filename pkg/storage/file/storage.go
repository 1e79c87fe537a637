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

// Package file provides a storage.Backend that keeps one file per key
// beneath a root directory on an afero filesystem. The CLI uses the OS
// filesystem; tests use afero.NewMemMapFs.
package file

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-testament/pkg/storage"
	"github.com/spf13/afero"
)

const (
	defaultDirPerms  = 0700
	defaultFilePerms = 0600
)

// FileStorage is a file-per-key storage.Backend. It is safe for concurrent
// use within one process.
type FileStorage struct {
	mu      sync.RWMutex
	fs      afero.Fs
	rootDir string
	closed  bool
}

// New returns a FileStorage rooted at rootDir on fsys, creating the
// directory if needed.
func New(fsys afero.Fs, rootDir string) (*FileStorage, error) {
	if fsys == nil {
		return nil, fmt.Errorf("file storage: filesystem cannot be nil")
	}
	if rootDir == "" {
		return nil, fmt.Errorf("file storage: root directory cannot be empty")
	}
	rootDir = filepath.Clean(rootDir)

	exists, err := afero.DirExists(fsys, rootDir)
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to stat root directory: %w", err)
	}
	if !exists {
		if err := fsys.MkdirAll(rootDir, defaultDirPerms); err != nil {
			return nil, fmt.Errorf("file storage: failed to create root directory: %w", err)
		}
	}
	return &FileStorage{
		fs:      fsys,
		rootDir: rootDir,
	}, nil
}

// Root returns the directory keys are resolved against.
func (f *FileStorage) Root() string {
	return f.rootDir
}

// Get returns the contents of the file for key.
func (f *FileStorage) Get(key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, storage.ErrClosed
	}
	path, err := f.keyToPath(key)
	if err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("file storage: failed to read key %q: %w", key, err)
	}
	return data, nil
}

// Put writes value to the file for key, creating parent directories.
func (f *FileStorage) Put(key string, value []byte, opts *storage.Options) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return storage.ErrClosed
	}
	path, err := f.keyToPath(key)
	if err != nil {
		return err
	}

	if !storage.AllowOverwrite(opts) {
		exists, err := afero.Exists(f.fs, path)
		if err != nil {
			return fmt.Errorf("file storage: failed to check key %q: %w", key, err)
		}
		if exists {
			return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, key)
		}
	}

	if err := f.fs.MkdirAll(filepath.Dir(path), defaultDirPerms); err != nil {
		return fmt.Errorf("file storage: failed to create directory for key %q: %w", key, err)
	}
	if err := afero.WriteFile(f.fs, path, value, permissions(opts)); err != nil {
		return fmt.Errorf("file storage: failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes the file for key.
func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return storage.ErrClosed
	}
	path, err := f.keyToPath(key)
	if err != nil {
		return err
	}

	if _, err := f.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("file storage: failed to stat key %q: %w", key, err)
	}
	if err := f.fs.Remove(path); err != nil {
		return fmt.Errorf("file storage: failed to delete key %q: %w", key, err)
	}
	return nil
}

// List walks the root and returns every key with the given prefix, sorted.
// Keys always use forward slashes.
func (f *FileStorage) List(prefix string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, storage.ErrClosed
	}

	keys := make([]string, 0)
	err := afero.Walk(f.fs, f.rootDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.rootDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("file storage: failed to list keys: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

// Exists reports whether the file for key exists.
func (f *FileStorage) Exists(key string) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return false, storage.ErrClosed
	}
	path, err := f.keyToPath(key)
	if err != nil {
		return false, err
	}

	ok, err := afero.Exists(f.fs, path)
	if err != nil {
		return false, fmt.Errorf("file storage: failed to check key %q: %w", key, err)
	}
	return ok, nil
}

// Close marks the backend closed. Files are left in place.
func (f *FileStorage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FileStorage) keyToPath(key string) (string, error) {
	if err := validateStorageKey(key); err != nil {
		return "", fmt.Errorf("%w: %q: %v", storage.ErrInvalidKey, key, err)
	}
	return filepath.Join(f.rootDir, filepath.FromSlash(key)), nil
}

// validateStorageKey allows nested keys like "wills/alice.key" but rejects
// anything that would resolve outside the root.
func validateStorageKey(key string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if strings.Contains(key, "\x00") {
		return fmt.Errorf("key contains null byte")
	}
	if filepath.IsAbs(key) || strings.HasPrefix(key, "/") {
		return fmt.Errorf("key cannot be an absolute path")
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(key)))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || cleaned == "." {
		return fmt.Errorf("key contains path traversal attempt")
	}
	return nil
}

func permissions(opts *storage.Options) fs.FileMode {
	if opts != nil && opts.Permissions != 0 {
		return opts.Permissions
	}
	return defaultFilePerms
}
