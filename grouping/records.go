// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package grouping

import (
	"maps"
	"slices"
	"strconv"
	"strings"
)

// SequenceSeparator joins a stop's package identifiers in flat records.
const SequenceSeparator = ";"

// Columns of a flat stop record, before any passthrough columns.
var Columns = []string{
	"sequence",
	"address",
	"complement",
	"neighborhood",
	"city",
	"state",
	"latitude",
	"longitude",
	"status",
	"learned",
	"packages",
	"display_name",
	"note",
}

// Records flattens stops into a header and string rows. Passthrough fields of
// the first row of each stop follow the fixed columns, sorted by name.
func Records(stops []Stop) ([]string, [][]string) {
	extra := make(map[string]struct{})

	for _, s := range stops {
		for k := range s.Extra {
			extra[k] = struct{}{}
		}
	}

	extraCols := slices.Sorted(maps.Keys(extra))
	header := slices.Concat(Columns, extraCols)

	out := make([][]string, 0, len(stops))

	for _, s := range stops {
		rec := []string{
			strings.Join(s.Sequences, SequenceSeparator),
			s.Address,
			s.Complement,
			s.Neighborhood,
			s.City,
			s.State,
			s.Latitude,
			s.Longitude,
			string(s.Status),
			strconv.FormatBool(s.Learned),
			strconv.Itoa(len(s.Sequences)),
			s.DisplayName,
			s.Note,
		}

		for _, k := range extraCols {
			rec = append(rec, s.Extra[k])
		}

		out = append(out, rec)
	}

	return header, out
}
