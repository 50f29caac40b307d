// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package learning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
)

// ExportToJSON writes every learned entry to filepath as a single
// {key: {lat, lng, updatedAt}} object.
func ExportToJSON(ctx context.Context, repo Repository, filepath string) (int, error) {
	entries, err := repo.All(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing learned locations: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("marshaling JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o600); err != nil {
		return 0, fmt.Errorf("writing file: %w", err)
	}

	return len(entries), nil
}

// ImportFromJSON loads entries from filepath into repo, keeping their
// timestamps. Existing keys are overwritten.
func ImportFromJSON(ctx context.Context, repo Repository, filepath string) (int, error) {
	data, err := os.ReadFile(filepath) // #nosec G304 - filepath is provided by the operator
	if err != nil {
		return 0, fmt.Errorf("reading file: %w", err)
	}

	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parsing JSON: %w", err)
	}

	imported := 0

	for _, key := range slices.Sorted(maps.Keys(entries)) {
		if err := repo.Put(ctx, key, entries[key]); err != nil {
			return imported, fmt.Errorf("saving learned location %s: %w", key, err)
		}

		imported++
	}

	return imported, nil
}

// SeedIfEmpty imports filepath when repo holds no entries. A missing seed file
// is not an error.
func SeedIfEmpty(ctx context.Context, repo Repository, filepath string) (bool, int, error) {
	entries, err := repo.All(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("counting learned locations: %w", err)
	}

	if len(entries) > 0 {
		return false, len(entries), nil
	}

	if _, err := os.Stat(filepath); errors.Is(err, os.ErrNotExist) {
		return false, 0, nil
	}

	imported, err := ImportFromJSON(ctx, repo, filepath)
	if err != nil {
		return false, 0, err
	}

	return true, imported, nil
}
