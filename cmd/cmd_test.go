// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotasmart/rotasmart/adjust"
	"github.com/rotasmart/rotasmart/learning"
	"github.com/rotasmart/rotasmart/reconcile"
)

func resetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	setDefaults(viper.GetViper())
	t.Cleanup(func() {
		viper.Reset()
		setDefaults(viper.GetViper())
	})
}

func TestOpenLearningStore(t *testing.T) {
	ctx := context.Background()

	t.Run("file store with seed", func(t *testing.T) {
		resetConfig(t)

		dir := t.TempDir()
		seed := filepath.Join(dir, "seed.json")
		require.NoError(t, os.WriteFile(seed, []byte(`{"rua_a_1__santos_sp":{"lat":-23.96,"lng":-46.33,"updatedAt":1700000000000}}`), 0o600))

		viper.Set(keyLearningStore, "file")
		viper.Set(keyLearningPath, filepath.Join(dir, "learned.json"))
		viper.Set(keyLearningSeed, seed)

		repo, closeStore, err := openLearningStore(ctx)
		require.NoError(t, err)
		defer closeStore()

		e, ok := learning.NewCache(repo).Load(ctx, "rua_a_1__santos_sp")
		require.True(t, ok)
		assert.InDelta(t, -23.96, e.Lat, 1e-9)
	})

	t.Run("duckdb store", func(t *testing.T) {
		resetConfig(t)

		viper.Set(keyLearningStore, "duckdb")
		viper.Set(keyLearningPath, filepath.Join(t.TempDir(), "learned.duckdb"))

		repo, closeStore, err := openLearningStore(ctx)
		require.NoError(t, err)
		defer closeStore()

		_, isFinder := repo.(learning.Finder)
		assert.True(t, isFinder)
	})

	t.Run("unknown store", func(t *testing.T) {
		resetConfig(t)
		viper.Set(keyLearningStore, "redis")

		_, _, err := openLearningStore(ctx)
		assert.ErrorContains(t, err, "redis")
	})
}

func TestReconcileOptionsFromConfig(t *testing.T) {
	resetConfig(t)

	assert.Equal(t, reconcile.DefaultOptions(), reconcileOptions())

	viper.Set(keyThreshold, 120)
	viper.Set(keyWorkers, 4)
	viper.Set(keySkipAreaMatch, true)

	opts := reconcileOptions()
	assert.InDelta(t, 120.0, opts.DistanceThreshold, 1e-9)
	assert.Equal(t, 4, opts.Workers)
	assert.True(t, opts.SkipAreaMatch)
}

func TestRunProcessWithoutGeocoder(t *testing.T) {
	resetConfig(t)

	dir := t.TempDir()
	input := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(input, []byte(
		"Sequencia;Endereco;Bairro;Cidade;Estado;Latitude;Longitude\n"+
			"S1;Rua A, 1;Centro;Santos;SP;-23,96;-46,33\n"+
			"S2;Rua A, 1, Fundos;Centro;Santos;SP;-23,96;-46,33\n"+
			"S3;Rua B, 2;Centro;Santos;SP;;\n"), 0o600))

	viper.Set(keyLearningStore, "memory")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	opts := processOptions{
		out:       filepath.Join(dir, "stops.csv"),
		session:   filepath.Join(dir, "session.json"),
		noGeocode: true,
	}
	require.NoError(t, runProcess(cmd, input, opts))

	session, err := adjust.LoadSession(opts.session)
	require.NoError(t, err)
	require.Len(t, session.Stops, 2)
	assert.Equal(t, []string{"S1", "S2"}, session.Stops[0].Sequences)
	assert.Equal(t, reconcile.StatusValid, session.Stops[0].Status)
	assert.Equal(t, reconcile.StatusPending, session.Stops[1].Status)
	assert.True(t, reconcile.HasNote(session.Stops[1].Note, reconcile.NoteGeocoderDisabled))

	data, err := os.ReadFile(opts.out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "S1;S2")
}

func TestAnalyzeAddress(t *testing.T) {
	got := analyzeAddress("Rua Exemplo, 123, Fundos")
	assert.Equal(t, "rua exemplo 123", got.Signature)
	assert.Equal(t, "123", got.HouseNumber)
	assert.False(t, got.BlockAndLot)
	assert.NotEmpty(t, got.Complement)
}
