// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package learning

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotasmart/rotasmart/spatial"
)

// DuckDBStore keeps learned entries in an embedded DuckDB database. Each
// entry is indexed by its H3 cell so nearby corrections can be listed.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore returns a store over db. Call CreateSchema before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// DB returns the underlying database connection.
func (s *DuckDBStore) DB() *sql.DB {
	return s.db
}

// CreateSchema creates the learned_locations table.
func (s *DuckDBStore) CreateSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS learned_locations (
			learning_key VARCHAR PRIMARY KEY,
			lat DOUBLE NOT NULL,
			lng DOUBLE NOT NULL,
			h3_cell BIGINT,
			updated_at TIMESTAMP NOT NULL
		);
	`)

	return err
}

func cellOf(e Entry) (sql.NullInt64, error) {
	cell, err := e.Point().Cell(spatial.CellResolution)
	if err != nil {
		return sql.NullInt64{}, err
	}

	return sql.NullInt64{Int64: int64(cell), Valid: true}, nil
}

// Get implements Repository.
func (s *DuckDBStore) Get(ctx context.Context, key string) (*Entry, error) {
	var e Entry

	err := s.db.QueryRowContext(ctx, `
		SELECT lat, lng, updated_at FROM learned_locations WHERE learning_key = ?
	`, key).Scan(&e.Lat, &e.Lng, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("querying learned location %s: %w", key, err)
	}

	e.UpdatedAt = e.UpdatedAt.UTC()

	return &e, nil
}

// Put implements Repository.
func (s *DuckDBStore) Put(ctx context.Context, key string, entry Entry) error {
	cell, err := cellOf(entry)
	if err != nil {
		return err
	}

	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learned_locations (learning_key, lat, lng, h3_cell, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (learning_key) DO UPDATE SET
			lat = excluded.lat,
			lng = excluded.lng,
			h3_cell = excluded.h3_cell,
			updated_at = excluded.updated_at
	`, key, entry.Lat, entry.Lng, cell, updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("upserting learned location %s: %w", key, err)
	}

	return nil
}

// All implements Repository.
func (s *DuckDBStore) All(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT learning_key, lat, lng, updated_at FROM learned_locations`)
	if err != nil {
		return nil, fmt.Errorf("listing learned locations: %w", err)
	}
	defer rows.Close()

	entries := map[string]Entry{}

	for rows.Next() {
		var (
			key string
			e   Entry
		)

		if err := rows.Scan(&key, &e.Lat, &e.Lng, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning learned location: %w", err)
		}

		e.UpdatedAt = e.UpdatedAt.UTC()
		entries[key] = e
	}

	return entries, rows.Err()
}

// Near implements Finder. It returns entries whose cell lies within rings of
// p's cell, closest first.
func (s *DuckDBStore) Near(ctx context.Context, p spatial.Point, rings int) ([]Nearby, error) {
	cells, err := p.Neighborhood(spatial.CellResolution, rings)
	if err != nil {
		return nil, err
	}

	if len(cells) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(cells))
	args := make([]any, len(cells))

	for i, c := range cells {
		placeholders[i] = "?"
		args[i] = int64(c)
	}

	query := fmt.Sprintf(`
		SELECT learning_key, lat, lng, updated_at
		FROM learned_locations
		WHERE h3_cell IN (%s)
	`, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying nearby learned locations: %w", err)
	}
	defer rows.Close()

	var found []Nearby

	for rows.Next() {
		var n Nearby
		if err := rows.Scan(&n.Key, &n.Entry.Lat, &n.Entry.Lng, &n.Entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning learned location: %w", err)
		}

		n.Entry.UpdatedAt = n.Entry.UpdatedAt.UTC()
		point := n.Entry.Point()
		n.Distance = p.HaversineDistance(&point)
		found = append(found, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Distance != found[j].Distance {
			return found[i].Distance < found[j].Distance
		}

		return found[i].Key < found[j].Key
	})

	return found, nil
}
