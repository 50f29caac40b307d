// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package learning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepository struct {
	err error
}

func (f failingRepository) Get(context.Context, string) (*Entry, error) { return nil, f.err }

func (f failingRepository) Put(context.Context, string, Entry) error { return f.err }

func (f failingRepository) All(context.Context) (map[string]Entry, error) { return nil, f.err }

func TestCache_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	cache := NewCache(NewMemoryStore())
	cache.now = func() time.Time { return fixed }

	require.NoError(t, cache.Save(ctx, "rua_exemplo_123_centro_sao_paulo_sp", -23.55052, -46.633309))

	entry, ok := cache.Load(ctx, "rua_exemplo_123_centro_sao_paulo_sp")
	require.True(t, ok)
	assert.Equal(t, -23.55052, entry.Lat)
	assert.Equal(t, -46.633309, entry.Lng)
	assert.Equal(t, fixed, entry.UpdatedAt)

	_, ok = cache.Load(ctx, "unknown")
	assert.False(t, ok)
}

func TestCache_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStore())

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return first }
	require.NoError(t, cache.Save(ctx, "k", -23.5, -46.6))

	second := first.Add(time.Hour)
	cache.now = func() time.Time { return second }
	require.NoError(t, cache.Save(ctx, "k", -23.6, -46.7))

	entry, ok := cache.Load(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, -23.6, entry.Lat)
	assert.Equal(t, second, entry.UpdatedAt)

	all, err := cache.Repository().All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCache_SaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	cache := NewCache(NewMemoryStore())

	assert.Error(t, cache.Save(ctx, "", -23.5, -46.6))
	assert.Error(t, cache.Save(ctx, "k", 0, 0))
	assert.Error(t, cache.Save(ctx, "k", 91, 0))
}

func TestCache_LoadNeverFails(t *testing.T) {
	ctx := context.Background()

	cache := NewCache(failingRepository{err: ErrCorruptStore})
	entry, ok := cache.Load(ctx, "k")
	assert.False(t, ok)
	assert.Nil(t, entry)

	cache = NewCache(failingRepository{err: errors.New("disk on fire")})
	_, ok = cache.Load(ctx, "k")
	assert.False(t, ok)

	assert.Error(t, cache.Save(ctx, "k", -23.5, -46.6))
}

func TestCache_LoadIgnoresOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "k", Entry{Lat: 0, Lng: 0}))

	_, ok := NewCache(store).Load(ctx, "k")
	assert.False(t, ok)
}
