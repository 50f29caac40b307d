// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

// Package grouping collapses reconciled order rows into delivery stops.
package grouping

import (
	"log"
	"slices"
	"strconv"

	"github.com/rotasmart/rotasmart/address"
	"github.com/rotasmart/rotasmart/reconcile"
)

// Stop is one physical delivery location.
type Stop struct {
	Index        int               `json:"index"`
	Signature    string            `json:"signature"`
	Address      string            `json:"address"`
	Complement   string            `json:"complement,omitempty"`
	DisplayName  string            `json:"display_name,omitempty"`
	Neighborhood string            `json:"neighborhood,omitempty"`
	City         string            `json:"city,omitempty"`
	State        string            `json:"state,omitempty"`
	Latitude     string            `json:"latitude,omitempty"`
	Longitude    string            `json:"longitude,omitempty"`
	Status       reconcile.Status  `json:"status"`
	Note         string            `json:"note,omitempty"`
	Learned      bool              `json:"learned,omitempty"`
	LearningKey  string            `json:"learning_key,omitempty"`
	Sequences    []string          `json:"sequences"`
	Extra        map[string]string `json:"extra,omitempty"`

	Rows []reconcile.ReconciledAddress `json:"rows"`
}

// rowSequences returns the package identifiers of a row, or its 1-based row
// number when the input had none.
func rowSequences(a reconcile.ReconciledAddress) []string {
	if len(a.Row.Sequences) > 0 {
		return a.Row.Sequences
	}

	return []string{strconv.Itoa(a.Row.Index + 1)}
}

// Signature is the grouping key of a reconciled row.
func Signature(a reconcile.ReconciledAddress) string {
	return address.ExtractNormalizedStreetAndNumber(a.GroupingAddress())
}

// Group partitions rows by signature and consolidates each partition into a
// Stop. Stops come out in first-seen order. Rows with an empty signature are
// logged and dropped.
func Group(rows []reconcile.ReconciledAddress) []Stop {
	var (
		order  []string
		groups = make(map[string][]reconcile.ReconciledAddress)
	)

	for _, row := range rows {
		sig := Signature(row)
		if sig == "" {
			log.Printf("skipping row %d: empty address signature for %q", row.Row.Index+1, row.OriginalAddress)

			continue
		}

		if _, ok := groups[sig]; !ok {
			order = append(order, sig)
		}

		groups[sig] = append(groups[sig], row)
	}

	stops := make([]Stop, 0, len(order))
	for i, sig := range order {
		stop := consolidate(sig, groups[sig])
		stop.Index = i
		stops = append(stops, stop)
	}

	return stops
}

func consolidate(sig string, rows []reconcile.ReconciledAddress) Stop {
	first := rows[0]

	stop := Stop{
		Signature:    sig,
		Address:      displayAddress(first, sig),
		DisplayName:  first.DisplayName,
		Neighborhood: first.Row.Neighborhood,
		City:         first.Row.City,
		State:        first.Row.State,
		Latitude:     first.Latitude,
		Longitude:    first.Longitude,
		Status:       reconcile.StatusValid,
		Note:         first.Note,
		LearningKey:  first.LearningKey,
		Extra:        first.Row.Extra,
		Rows:         rows,
	}

	seen := make(map[string]struct{})

	for _, row := range rows {
		stop.Status = reconcile.Worst(stop.Status, row.Status)
		stop.Learned = stop.Learned || row.Learned

		// manual corrections win over batch results
		if row.Status == reconcile.StatusCorrected && row.Latitude != "" && row.Longitude != "" {
			stop.Latitude, stop.Longitude = row.Latitude, row.Longitude
		}

		for _, seq := range rowSequences(row) {
			if _, dup := seen[seq]; dup {
				continue
			}

			seen[seq] = struct{}{}
			stop.Sequences = append(stop.Sequences, seq)
		}
	}

	stop.Complement = consistentComplement(rows)

	return stop
}

// consistentComplement returns the normalized complement shared by every row,
// or "" when any row has none or two rows differ.
func consistentComplement(rows []reconcile.ReconciledAddress) string {
	var shared string

	for i, row := range rows {
		c := address.NormalizeComplement(address.ExtractComplement(row.OriginalAddress))
		if c == "" {
			return ""
		}

		if i == 0 {
			shared = c
		} else if c != shared {
			return ""
		}
	}

	return shared
}

// displayAddress is the street and number part of the first row's corrected
// (or original) address, falling back to the signature.
func displayAddress(first reconcile.ReconciledAddress, sig string) string {
	for _, s := range []string{first.CorrectedAddress, first.OriginalAddress} {
		if d := address.StreetAndNumber(s); d != "" {
			return d
		}
	}

	return sig
}

// Packages counts the package identifiers of rows before deduplication.
func Packages(rows []reconcile.ReconciledAddress) int {
	n := 0
	for _, row := range rows {
		n += len(rowSequences(row))
	}

	return n
}

// PendingStops returns the indexes of stops that still need a human.
func PendingStops(stops []Stop) []int {
	var out []int

	for i, s := range stops {
		if s.Status.NeedsReview() {
			out = append(out, i)
		}
	}

	return slices.Clip(out)
}
