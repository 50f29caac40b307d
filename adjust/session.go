// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

// Package adjust serves a processed run so a human can place pending stops
// by hand. Every placement is learned for future runs.
package adjust

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rotasmart/rotasmart/grouping"
	"github.com/rotasmart/rotasmart/ingest"
	"github.com/rotasmart/rotasmart/reconcile"
)

// Session is the result of one processing run, kept until it is exported.
type Session struct {
	CreatedAt time.Time        `json:"created_at"`
	Threshold float64          `json:"threshold_m"`
	Summary   grouping.Summary `json:"summary"`
	Stops     []grouping.Stop  `json:"stops"`
	Nearby    [][]int          `json:"nearby,omitempty"`
}

// NewSession groups reconciled rows into stops and summarizes them.
// threshold is the radius used for proximity warnings.
func NewSession(rows []reconcile.ReconciledAddress, threshold float64) *Session {
	stops := grouping.Group(rows)

	return &Session{
		CreatedAt: time.Now().UTC(),
		Threshold: threshold,
		Summary:   grouping.Summarize(rows, stops),
		Stops:     stops,
		Nearby:    grouping.NearbyStops(stops, threshold),
	}
}

// Refresh recomputes the per-stop figures after corrections. Input row and
// package counts are kept from the original run.
func (s *Session) Refresh() {
	sum := grouping.Summarize(grouping.Rows(s.Stops), s.Stops)
	sum.Rows, sum.Packages, sum.Dropped = s.Summary.Rows, s.Summary.Packages, s.Summary.Dropped

	s.Summary = sum
	s.Nearby = grouping.NearbyStops(s.Stops, s.Threshold)
}

// Export writes the stops as flat records to path (.xlsx or .csv).
func (s *Session) Export(path string) error {
	header, records := grouping.Records(s.Stops)

	return ingest.WriteFile(path, header, records)
}

// Save writes the session as JSON, replacing path atomically.
func (s *Session) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("writing session: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("closing session: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	return nil
}

// LoadSession reads a session written by Save.
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}

	for i := range s.Stops {
		s.Stops[i].Index = i

		st, err := reconcile.ParseStatus(string(s.Stops[i].Status))
		if err != nil {
			return nil, fmt.Errorf("stop %d: %w", i, err)
		}

		s.Stops[i].Status = st
	}

	return &s, nil
}
