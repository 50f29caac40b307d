// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package learning

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is a process-local Repository.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

// Get implements Repository.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}

	return &entry, nil
}

// Put implements Repository.
func (s *MemoryStore) Put(_ context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = entry

	return nil
}

// All implements Repository.
func (s *MemoryStore) All(_ context.Context) (map[string]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.entries), nil
}
