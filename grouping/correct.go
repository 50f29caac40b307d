// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package grouping

import (
	"context"
	"errors"
	"fmt"

	"github.com/rotasmart/rotasmart/learning"
	"github.com/rotasmart/rotasmart/reconcile"
	"github.com/rotasmart/rotasmart/spatial"
)

// ErrInvalidCoordinate is returned when a manual correction is out of range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Correct places the stop at lat/lng by hand: the coordinate is stored with
// six decimals, the stop and its rows become corrected, and the coordinate is
// learned under every distinct learning key of the stop's rows. The stop is
// updated even when saving to the cache fails; the error is returned.
func (s *Stop) Correct(ctx context.Context, cache *learning.Cache, lat, lng float64) error {
	if !spatial.IsValidCoordinate(lat, lng) {
		return fmt.Errorf("%w: %f,%f", ErrInvalidCoordinate, lat, lng)
	}

	p := spatial.Point{Lat: lat, Lng: lng}
	s.Latitude = spatial.FormatCoordinate(lat)
	s.Longitude = spatial.FormatCoordinate(lng)
	s.Status = reconcile.StatusCorrected
	s.Note = reconcile.AppendNote(s.Note, reconcile.NoteAdjustedManually)

	keys := make([]string, 0, len(s.Rows)+1)
	if s.LearningKey != "" {
		keys = append(keys, s.LearningKey)
	}

	for i := range s.Rows {
		row := &s.Rows[i]
		row.SetPoint(p)
		row.Status = reconcile.StatusCorrected
		row.Note = reconcile.AppendNote(row.Note, reconcile.NoteAdjustedManually)

		if row.LearningKey != "" {
			keys = append(keys, row.LearningKey)
		}
	}

	if cache == nil {
		return nil
	}

	var errs []error

	saved := make(map[string]bool, len(keys))

	for _, key := range keys {
		if saved[key] {
			continue
		}

		saved[key] = true

		if err := cache.Save(ctx, key, lat, lng); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Rows flattens the contributing rows of stops, in stop order. Feeding the
// result back into Group reproduces the same stops.
func Rows(stops []Stop) []reconcile.ReconciledAddress {
	var out []reconcile.ReconciledAddress
	for _, s := range stops {
		out = append(out, s.Rows...)
	}

	return out
}
