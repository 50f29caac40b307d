// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/rotasmart/rotasmart/address"
	"github.com/rotasmart/rotasmart/geocoding"
	"github.com/rotasmart/rotasmart/learning"
	"github.com/rotasmart/rotasmart/spatial"
)

// ErrEmptyBatch is returned when there are no rows to reconcile.
var ErrEmptyBatch = errors.New("no rows to reconcile")

// DefaultDistanceThreshold is the default agreement radius, in meters,
// between a spreadsheet coordinate and a geocoder result.
const DefaultDistanceThreshold = 50.0

// Options tune the arbitration heuristics.
type Options struct {
	// DistanceThreshold is the agreement radius in meters.
	DistanceThreshold float64
	// Country restricts geocoder queries (ISO 3166-1 alpha-2).
	Country string
	// SkipAreaMatch accepts any geocoder result regardless of its
	// administrative area.
	SkipAreaMatch bool
	// BatchSize is the number of rows between progress reports.
	BatchSize int
	// Workers is the number of concurrent lookups inside a batch. The
	// geocoder's rate limiter still bounds the aggregate request rate.
	Workers int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		DistanceThreshold: DefaultDistanceThreshold,
		Country:           "br",
		BatchSize:         50,
		Workers:           1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()

	if o.DistanceThreshold <= 0 {
		o.DistanceThreshold = d.DistanceThreshold
	}

	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}

	if o.Workers <= 0 {
		o.Workers = d.Workers
	}

	return o
}

// Reconciler arbitrates between learned corrections, spreadsheet coordinates
// and geocoder results. A nil geocoder disables network lookups.
type Reconciler struct {
	geocoder geocoding.Geocoder
	cache    *learning.Cache
	opts     Options
}

// New creates a Reconciler. cache may be nil.
func New(geocoder geocoding.Geocoder, cache *learning.Cache, opts Options) *Reconciler {
	return &Reconciler{
		geocoder: geocoder,
		cache:    cache,
		opts:     opts.withDefaults(),
	}
}

// Options returns the effective options.
func (r *Reconciler) Options() Options {
	return r.opts
}

// Reconcile decides the final coordinate and status of a single row. It never
// fails: provider errors end up in the note.
func (r *Reconciler) Reconcile(ctx context.Context, row OrderRow) (res ReconciledAddress) {
	res = ReconciledAddress{
		Row:              row,
		OriginalAddress:  row.Address,
		CorrectedAddress: row.Address,
		Status:           StatusPending,
		LearningKey:      row.LearningKey(),
	}

	var n notes

	defer func() { res.Note = n.String() }()

	if r.cache != nil {
		if entry, ok := r.cache.Load(ctx, res.LearningKey); ok {
			res.SetPoint(entry.Point())
			res.Status = StatusValid
			res.Learned = true
			n.add(NoteLearned)

			return res
		}
	}

	src, hasSource := row.SourcePoint()
	if hasSource {
		res.SetPoint(src)
		res.Status = StatusValid
		n.add(NoteFromSource)
	} else if row.HasSourceCoordinate() {
		n.add(NoteInvalidSource)
	}

	if address.IsBlockAndLot(row.Address) {
		// the spreadsheet coordinate stays as a placement hint
		res.Status = StatusPending
		n.add(NoteBlockAndLot)

		return res
	}

	if r.geocoder == nil {
		n.add(NoteGeocoderDisabled)

		return res
	}

	geo := r.lookup(ctx, row, &n)
	if geo == nil {
		if hasSource {
			n.add(NoteGeocodingSkipped)
		}

		return res
	}

	if !hasSource {
		res.SetPoint(geo.Point)
		res.Status = StatusValid
		res.DisplayName = geo.DisplayName
		res.CorrectedAddress = correctedAddress(row.Address, geo.Area)
		n.add(NoteGeocoderMatch)

		return res
	}

	distance := src.HaversineDistance(&geo.Point)
	n.addValue(NoteDistance, strconv.FormatFloat(distance, 'f', 0, 64))

	if distance <= r.opts.DistanceThreshold {
		res.DisplayName = geo.DisplayName
		res.CorrectedAddress = correctedAddress(row.Address, geo.Area)
		n.add(NoteGeocoderAgrees)

		return res
	}

	res.Status = StatusPending
	res.DisplayName = geo.DisplayName
	n.add(NoteGeocoderDisagrees)
	n.addValue(NoteSourceCoordinate, pointString(src))
	n.addValue(NoteGeocodedCoordinate, pointString(geo.Point))

	return res
}

// lookup returns the geocoder result when it is usable, recording why it is
// not otherwise.
func (r *Reconciler) lookup(ctx context.Context, row OrderRow, n *notes) *geocoding.Result {
	q := geocoding.Query{Text: row.QueryText(), Country: r.opts.Country}

	geo, err := r.geocoder.Geocode(ctx, q)
	if err != nil {
		log.Printf("geocoding row %d (%q) failed: %v", row.Index+1, q.Text, err)
		n.addValue(NoteGeocoderError, geocoding.Classify(err).String())

		return nil
	}

	if geo == nil || !geo.Point.Valid() {
		n.add(NoteGeocoderNotFound)

		return nil
	}

	if !r.opts.SkipAreaMatch {
		if miss := MatchArea(row, geo.Area); len(miss) > 0 {
			n.addValue(NoteGeocoderAreaMiss, strings.Join(miss, ","))

			return nil
		}
	}

	return geo
}

// pointString renders p as "lat,lng".
func pointString(p spatial.Point) string {
	return spatial.FormatCoordinate(p.Lat) + "," + spatial.FormatCoordinate(p.Lng)
}
