// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package learning

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/rotasmart/rotasmart/spatial"
)

// Cache is the read-before-geocode, write-on-correction view of a Repository.
type Cache struct {
	repo Repository
	now  func() time.Time
}

// NewCache wraps repo.
func NewCache(repo Repository) *Cache {
	return &Cache{repo: repo, now: time.Now}
}

// Repository returns the backing store.
func (c *Cache) Repository() Repository {
	return c.repo
}

// Save stores lat/lng under key with a fresh timestamp, replacing any previous
// entry. The write is durable when Save returns.
func (c *Cache) Save(ctx context.Context, key string, lat, lng float64) error {
	if key == "" {
		return errors.New("learning key can't be empty")
	}

	if !spatial.IsValidCoordinate(lat, lng) {
		return fmt.Errorf("invalid coordinate %f,%f for %s", lat, lng, key)
	}

	entry := Entry{Lat: lat, Lng: lng, UpdatedAt: c.now().UTC()}
	if err := c.repo.Put(ctx, key, entry); err != nil {
		return fmt.Errorf("saving learned location %s: %w", key, err)
	}

	return nil
}

// Load returns the entry stored under key. Store failures, including a
// corrupt store, are logged and reported as a miss. Entries whose coordinate
// is out of range are ignored.
func (c *Cache) Load(ctx context.Context, key string) (*Entry, bool) {
	if key == "" {
		return nil, false
	}

	entry, err := c.repo.Get(ctx, key)
	if err != nil {
		log.Printf("learned location lookup for %s failed, treating as absent: %v", key, err)

		return nil, false
	}

	if entry == nil {
		return nil, false
	}

	if !spatial.IsValidCoordinate(entry.Lat, entry.Lng) {
		log.Printf("ignoring learned location %s with invalid coordinate %f,%f", key, entry.Lat, entry.Lng)

		return nil, false
	}

	return entry, true
}
