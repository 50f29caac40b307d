//go:build integration

// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package learning

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *PostgresStore {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = postgresC.Terminate(ctx)
	})

	host, err := postgresC.Host(ctx)
	require.NoError(t, err)

	port, err := postgresC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connString := "postgres://testuser:testpass@" + host + ":" + port.Port() + "/testdb?sslmode=disable"

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)

	t.Cleanup(pool.Close)

	store := NewPostgresStore(pool)
	require.NoError(t, store.CreateSchema(ctx))

	return store
}

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	store := setupPostgres(t)
	ctx := context.Background()
	updated := time.UnixMilli(1700000000000).UTC()

	missing, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, store.Put(ctx, "k", Entry{Lat: -23.5, Lng: -46.6, UpdatedAt: updated}))
	require.NoError(t, store.Put(ctx, "k", Entry{Lat: -22.9, Lng: -43.1, UpdatedAt: updated}))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, -22.9, got.Lat)
	assert.Equal(t, updated.UnixMilli(), got.UpdatedAt.UnixMilli())

	all, err := store.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	cache := NewCache(store)
	require.NoError(t, cache.Save(ctx, "other", -23.6, -46.7))

	entry, ok := cache.Load(ctx, "other")
	require.True(t, ok)
	assert.Equal(t, -46.7, entry.Lng)
}
