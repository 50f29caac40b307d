// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rotasmart/rotasmart/geocoding"
	"github.com/rotasmart/rotasmart/learning"
	"github.com/rotasmart/rotasmart/reconcile"
)

const (
	keyProvider       = "geocoder.provider"
	keyAPIKey         = "geocoder.api_key"
	keyURL            = "geocoder.url"
	keyCountry        = "geocoder.country"
	keyRate           = "geocoder.rate"
	keyTimeout        = "geocoder.timeout"
	keyTraceHTTP      = "geocoder.trace_http"
	keyProject        = "geocoder.project"
	keyKeyName        = "geocoder.key_name"
	keyThreshold      = "reconcile.distance_threshold"
	keySkipAreaMatch  = "reconcile.skip_area_match"
	keyBatchSize      = "reconcile.batch_size"
	keyWorkers        = "reconcile.workers"
	keyLearningStore  = "learning.store"
	keyLearningPath   = "learning.path"
	keyLearningDSN    = "learning.dsn"
	keyLearningSeed   = "learning.seed"
	defaultKeyName    = "RotaSmart Geocoding Key"
	defaultLearnStore = "file"
)

func setDefaults(v *viper.Viper) {
	def := reconcile.DefaultOptions()

	v.SetDefault(keyProvider, "locationiq")
	v.SetDefault(keyCountry, def.Country)
	v.SetDefault(keyRate, 2.0)
	v.SetDefault(keyTimeout, 10*time.Second)
	v.SetDefault(keyKeyName, defaultKeyName)
	v.SetDefault(keyThreshold, def.DistanceThreshold)
	v.SetDefault(keyBatchSize, def.BatchSize)
	v.SetDefault(keyWorkers, def.Workers)
	v.SetDefault(keyLearningStore, defaultLearnStore)
	v.SetDefault(keyLearningPath, "rotasmart_learning.json")
}

// bindFlag exposes a viper key as a command flag.
func bindFlag(flags *pflag.FlagSet, key, name string) {
	if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", name, err))
	}
}

func geocoderConfig() geocoding.Config {
	cfg := geocoding.Config{
		Provider:       viper.GetString(keyProvider),
		APIKey:         viper.GetString(keyAPIKey),
		URL:            viper.GetString(keyURL),
		Country:        viper.GetString(keyCountry),
		Rate:           viper.GetFloat64(keyRate),
		Timeout:        viper.GetDuration(keyTimeout),
		Project:        viper.GetString(keyProject),
		KeyDisplayName: viper.GetString(keyKeyName),
	}

	if viper.GetBool(keyTraceHTTP) {
		cfg.Trace = os.Stderr
	}

	return cfg
}

func reconcileOptions() reconcile.Options {
	return reconcile.Options{
		DistanceThreshold: viper.GetFloat64(keyThreshold),
		Country:           viper.GetString(keyCountry),
		SkipAreaMatch:     viper.GetBool(keySkipAreaMatch),
		BatchSize:         viper.GetInt(keyBatchSize),
		Workers:           viper.GetInt(keyWorkers),
	}
}

// openLearningStore opens the configured learned-location backend. The
// returned function releases it.
func openLearningStore(ctx context.Context) (learning.Repository, func(), error) {
	kind := viper.GetString(keyLearningStore)
	path := viper.GetString(keyLearningPath)

	var (
		repo    learning.Repository
		closeFn = func() {}
	)

	switch kind {
	case "file":
		repo = learning.NewFileStore(path)
	case "memory":
		repo = learning.NewMemoryStore()
	case "duckdb":
		db, err := sql.Open("duckdb", path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}

		store := learning.NewDuckDBStore(db)
		if err := store.CreateSchema(); err != nil {
			db.Close()

			return nil, nil, fmt.Errorf("creating learned location schema: %w", err)
		}

		repo, closeFn = store, func() { db.Close() }
	case "postgres":
		store, err := learning.OpenPostgresStore(ctx, viper.GetString(keyLearningDSN))
		if err != nil {
			return nil, nil, err
		}

		if err := store.CreateSchema(ctx); err != nil {
			store.Close()

			return nil, nil, fmt.Errorf("creating learned location schema: %w", err)
		}

		repo, closeFn = store, store.Close
	default:
		return nil, nil, fmt.Errorf("unknown learning store %q", kind)
	}

	if seed := viper.GetString(keyLearningSeed); seed != "" {
		seeded, n, err := learning.SeedIfEmpty(ctx, repo, seed)
		if err != nil {
			closeFn()

			return nil, nil, fmt.Errorf("seeding learned locations: %w", err)
		}

		if seeded {
			log.Printf("seeded %d learned locations from %s", n, seed)
		}
	}

	return repo, closeFn, nil
}
