// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package learning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps learned entries in a shared PostgreSQL table, for teams
// that adjust stops from more than one machine.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore returns a store over pool. Call CreateSchema before use.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// OpenPostgresStore connects to dsn and verifies the connection.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("learning: failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, fmt.Errorf("learning: failed to ping database: %w", err)
	}

	return NewPostgresStore(pool), nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

// CreateSchema creates the learned_locations table.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS learned_locations (
			learning_key TEXT PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("learning: failed to create schema: %w", err)
	}

	return nil
}

// Get implements Repository.
func (s *PostgresStore) Get(ctx context.Context, key string) (*Entry, error) {
	var e Entry

	err := s.db.QueryRow(ctx, `
		SELECT lat, lng, updated_at FROM learned_locations WHERE learning_key = $1
	`, key).Scan(&e.Lat, &e.Lng, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("learning: failed to query %s: %w", key, err)
	}

	e.UpdatedAt = e.UpdatedAt.UTC()

	return &e, nil
}

// Put implements Repository.
func (s *PostgresStore) Put(ctx context.Context, key string, entry Entry) error {
	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO learned_locations (learning_key, lat, lng, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (learning_key) DO UPDATE SET
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			updated_at = EXCLUDED.updated_at
	`, key, entry.Lat, entry.Lng, updatedAt.UTC())
	if err != nil {
		return fmt.Errorf("learning: failed to upsert %s: %w", key, err)
	}

	return nil
}

// All implements Repository.
func (s *PostgresStore) All(ctx context.Context) (map[string]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT learning_key, lat, lng, updated_at FROM learned_locations`)
	if err != nil {
		return nil, fmt.Errorf("learning: failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := map[string]Entry{}

	for rows.Next() {
		var (
			key string
			e   Entry
		)

		if err := rows.Scan(&key, &e.Lat, &e.Lng, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("learning: failed to scan entry: %w", err)
		}

		e.UpdatedAt = e.UpdatedAt.UTC()
		entries[key] = e
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("learning: error iterating rows: %w", err)
	}

	return entries, nil
}
