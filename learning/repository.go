// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

// Package learning persists coordinates that a human confirmed for an
// address, so the same building is never mis-located twice.
package learning

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotasmart/rotasmart/spatial"
)

// ErrCorruptStore is returned by a store whose persisted payload cannot be decoded.
var ErrCorruptStore = errors.New("learned location store is corrupt")

// Entry is a learned coordinate. On the wire it is {"lat","lng","updatedAt"}
// with updatedAt in epoch milliseconds.
type Entry struct {
	Lat       float64
	Lng       float64
	UpdatedAt time.Time
}

type wireEntry struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	UpdatedAt int64   `json:"updatedAt"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	var ms int64
	if !e.UpdatedAt.IsZero() {
		ms = e.UpdatedAt.UnixMilli()
	}

	return json.Marshal(wireEntry{Lat: e.Lat, Lng: e.Lng, UpdatedAt: ms})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	e.Lat, e.Lng = w.Lat, w.Lng
	e.UpdatedAt = time.Time{}

	if w.UpdatedAt != 0 {
		e.UpdatedAt = time.UnixMilli(w.UpdatedAt).UTC()
	}

	return nil
}

// Point returns the entry coordinate.
func (e Entry) Point() spatial.Point {
	return spatial.Point{Lat: e.Lat, Lng: e.Lng}
}

// Repository stores learned entries by key. Get returns (nil, nil) when the
// key is unknown.
type Repository interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, entry Entry) error
	All(ctx context.Context) (map[string]Entry, error)
}

// Nearby is a learned entry found close to a point.
type Nearby struct {
	Key      string  `json:"key"`
	Entry    Entry   `json:"entry"`
	Distance float64 `json:"distance_m"`
}

// Finder is implemented by stores that can answer proximity queries.
type Finder interface {
	Near(ctx context.Context, p spatial.Point, rings int) ([]Nearby, error)
}
