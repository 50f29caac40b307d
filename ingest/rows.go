// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"strings"

	"github.com/rotasmart/rotasmart/reconcile"
)

// SequenceSeparator separates package identifiers inside one cell.
const SequenceSeparator = ";"

// SplitSequences splits a sequence cell, trimming and dropping empty parts.
func SplitSequences(cell string) []string {
	var out []string

	for _, s := range strings.Split(cell, SequenceSeparator) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}

// Sheet is a header plus data records, as read from a file.
type Sheet struct {
	Header  []string
	Records [][]string
}

// OrderRows maps the sheet onto order rows. Blank records are skipped but
// still count for row numbering. Columns that are not engine fields are kept
// in OrderRow.Extra under their header name.
func (s Sheet) OrderRows() ([]reconcile.OrderRow, error) {
	cols, err := DiscoverColumns(s.Header)
	if err != nil {
		return nil, err
	}

	known := make(map[int]bool, len(cols))
	for _, i := range cols {
		known[i] = true
	}

	var rows []reconcile.OrderRow

	for n, rec := range s.Records {
		if blank(rec) {
			continue
		}

		cell := func(f Field) string {
			i := cols.Index(f)
			if i < 0 || i >= len(rec) {
				return ""
			}

			return strings.TrimSpace(rec[i])
		}

		row := reconcile.OrderRow{
			Index:        n,
			Address:      cell(FieldAddress),
			Neighborhood: cell(FieldNeighborhood),
			City:         cell(FieldCity),
			State:        cell(FieldState),
			Latitude:     cell(FieldLatitude),
			Longitude:    cell(FieldLongitude),
			Sequences:    SplitSequences(cell(FieldSequence)),
		}

		for i, h := range s.Header {
			if known[i] || i >= len(rec) || strings.TrimSpace(h) == "" {
				continue
			}

			if row.Extra == nil {
				row.Extra = make(map[string]string)
			}

			row.Extra[h] = rec[i]
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptySheet
	}

	return rows, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
