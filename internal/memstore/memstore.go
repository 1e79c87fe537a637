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

// Package memstore is a map-backed storage.Backend for tests. It copies
// values in both directions, and it can be told to start refusing writes
// so callers can exercise their rollback paths.
package memstore

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-testament/pkg/storage"
)

// ErrWriteRefused is returned by Put once the write budget is spent.
var ErrWriteRefused = errors.New("memstore: write refused")

// Option configures a Store.
type Option func(*Store)

// FailAfter lets the first n writes succeed and refuses every later one.
func FailAfter(n int) Option {
	return func(s *Store) {
		s.budget = n
	}
}

// Store is an in-memory storage.Backend.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
	// budget is the number of writes left; negative means unlimited.
	budget int
	closed bool
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{values: make(map[string][]byte), budget: -1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	v, ok := s.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return slices.Clone(v), nil
}

// Put ignores opts.Permissions.
func (s *Store) Put(key string, value []byte, opts *storage.Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.closed:
		return storage.ErrClosed
	case key == "":
		return fmt.Errorf("%w: key cannot be empty", storage.ErrInvalidKey)
	case s.budget == 0:
		return fmt.Errorf("%w: %s", ErrWriteRefused, key)
	}
	if _, ok := s.values[key]; ok && !storage.AllowOverwrite(opts) {
		return fmt.Errorf("%w: %s", storage.ErrAlreadyExists, key)
	}
	if s.budget > 0 {
		s.budget--
	}
	if value == nil {
		value = []byte{}
	}
	s.values[key] = slices.Clone(value)
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	if _, ok := s.values[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.values, key)
	return nil
}

func (s *Store) List(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storage.ErrClosed
	}
	var keys []string
	for _, k := range slices.Sorted(maps.Keys(s.values)) {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

func (s *Store) Exists(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false, storage.ErrClosed
	}
	_, ok := s.values[key]
	return ok, nil
}

// Close drops every value. Closing twice is not an error.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.values = nil
	return nil
}

var _ storage.Backend = (*Store)(nil)
