// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every entry in a single JSON object on disk. Each operation
// reads the whole file and each Put writes it back.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created on the
// first Put.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) read() (map[string]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Entry{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	entries := map[string]Entry{}
	if len(data) == 0 {
		return entries, nil
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, s.path, err)
	}

	if entries == nil {
		// a "null" payload
		entries = map[string]Entry{}
	}

	return entries, nil
}

func (s *FileStore) write(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("replacing %s: %w", s.path, err)
	}

	return nil
}

// Get implements Repository.
func (s *FileStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	entry, ok := entries[key]
	if !ok {
		return nil, nil
	}

	return &entry, nil
}

// Put implements Repository. A corrupt file is moved aside to <path>.corrupt
// and replaced by a store holding only the new entry.
func (s *FileStore) Put(_ context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if errors.Is(err, ErrCorruptStore) {
		backup := s.path + ".corrupt"
		log.Printf("%v; moving it to %s", err, backup)

		if rErr := os.Rename(s.path, backup); rErr != nil {
			return fmt.Errorf("preserving corrupt store: %w", rErr)
		}

		entries, err = map[string]Entry{}, nil
	}

	if err != nil {
		return err
	}

	entries[key] = entry

	return s.write(entries)
}

// All implements Repository.
func (s *FileStore) All(_ context.Context) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return nil, err
	}

	return maps.Clone(entries), nil
}
