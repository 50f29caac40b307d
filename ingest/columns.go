// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

// Package ingest reads order spreadsheets into rows and writes stop records
// back out, as XLSX or CSV.
package ingest

import (
	"errors"
	"strings"

	"github.com/rotasmart/rotasmart/utils/textutils"
)

var (
	// ErrEmptySheet is returned when the input has no data rows.
	ErrEmptySheet = errors.New("spreadsheet has no data rows")
	// ErrNoAddressColumn is returned when no header looks like an address.
	ErrNoAddressColumn = errors.New("no address column found")
)

// Field is a column the engine reasons about.
type Field string

const (
	FieldAddress      Field = "address"
	FieldLatitude     Field = "latitude"
	FieldLongitude    Field = "longitude"
	FieldNeighborhood Field = "neighborhood"
	FieldCity         Field = "city"
	FieldState        Field = "state"
	FieldSequence     Field = "sequence"
)

// Fields in discovery order. A header is claimed by the first field it
// matches.
var Fields = []Field{
	FieldAddress,
	FieldLatitude,
	FieldLongitude,
	FieldNeighborhood,
	FieldCity,
	FieldState,
	FieldSequence,
}

// synonyms are matched as substrings of the folded header.
var synonyms = map[Field][]string{
	FieldAddress:      {"endereco", "address", "rua"},
	FieldLatitude:     {"latitude", "lat"},
	FieldLongitude:    {"longitude", "lon", "lng"},
	FieldNeighborhood: {"bairro", "neighborhood", "neighbourhood"},
	FieldCity:         {"cidade", "city", "municipio"},
	FieldState:        {"estado", "state"},
	FieldSequence:     {"sequence", "sequencia"},
}

// Columns maps each discovered field to its column index.
type Columns map[Field]int

// Index returns the column of f, or -1.
func (c Columns) Index(f Field) int {
	if i, ok := c[f]; ok {
		return i
	}

	return -1
}

// DiscoverColumns finds the engine's fields in header by case and accent
// insensitive substring matching. Only the address column is mandatory.
func DiscoverColumns(header []string) (Columns, error) {
	folded := make([]string, len(header))
	for i, h := range header {
		folded[i] = textutils.CollapseSpaces(textutils.LowerASCIIFolding(h))
	}

	cols := make(Columns)
	claimed := make([]bool, len(header))

	for _, f := range Fields {
		for i, h := range folded {
			if claimed[i] || h == "" || !matches(h, synonyms[f]) {
				continue
			}

			cols[f] = i
			claimed[i] = true

			break
		}
	}

	if _, ok := cols[FieldAddress]; !ok {
		return nil, ErrNoAddressColumn
	}

	return cols, nil
}

func matches(header string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(header, c) {
			return true
		}
	}

	return false
}
