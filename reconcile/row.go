// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

// Package reconcile decides, for each order row, which coordinate to trust:
// a learned correction, the spreadsheet value or the geocoder result.
package reconcile

import (
	"strings"

	"github.com/rotasmart/rotasmart/address"
	"github.com/rotasmart/rotasmart/geocoding"
	"github.com/rotasmart/rotasmart/spatial"
)

// OrderRow is one spreadsheet row after column mapping.
type OrderRow struct {
	Index        int               `json:"index"` // 0-based position in the input
	Address      string            `json:"address"`
	Neighborhood string            `json:"neighborhood,omitempty"`
	City         string            `json:"city,omitempty"`
	State        string            `json:"state,omitempty"`
	Latitude     string            `json:"latitude,omitempty"`
	Longitude    string            `json:"longitude,omitempty"`
	Sequences    []string          `json:"sequences,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Location returns the fields that identify the building.
func (r OrderRow) Location() address.Location {
	return address.Location{
		Address:      r.Address,
		Neighborhood: r.Neighborhood,
		City:         r.City,
		State:        r.State,
	}
}

// LearningKey is the learned-location key for the row.
func (r OrderRow) LearningKey() string {
	return address.BuildLearningKey(r.Location())
}

// SourcePoint returns the spreadsheet coordinate when it parses and is in range.
func (r OrderRow) SourcePoint() (spatial.Point, bool) {
	return spatial.ParsePoint(r.Latitude, r.Longitude)
}

// HasSourceCoordinate reports whether the row declared any coordinate text,
// valid or not.
func (r OrderRow) HasSourceCoordinate() bool {
	return strings.TrimSpace(r.Latitude) != "" || strings.TrimSpace(r.Longitude) != ""
}

// QueryText joins the non-empty address, neighborhood, city and state.
func (r OrderRow) QueryText() string {
	parts := make([]string, 0, 4)

	for _, p := range []string{r.Address, r.Neighborhood, r.City, r.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	return strings.Join(parts, ", ")
}

// ReconciledAddress is the outcome of arbitrating one row. Latitude and
// Longitude are six-decimal strings, empty when no coordinate is known.
type ReconciledAddress struct {
	Row              OrderRow `json:"row"`
	OriginalAddress  string   `json:"original_address"`
	CorrectedAddress string   `json:"corrected_address,omitempty"`
	DisplayName      string   `json:"display_name,omitempty"`
	Latitude         string   `json:"latitude,omitempty"`
	Longitude        string   `json:"longitude,omitempty"`
	Status           Status   `json:"status"`
	Note             string   `json:"note,omitempty"`
	Learned          bool     `json:"learned,omitempty"`
	LearningKey      string   `json:"learning_key,omitempty"`
}

// Point returns the final coordinate, if any.
func (a ReconciledAddress) Point() (spatial.Point, bool) {
	return spatial.ParsePoint(a.Latitude, a.Longitude)
}

// SetPoint stores p with six-decimal precision.
func (a *ReconciledAddress) SetPoint(p spatial.Point) {
	a.Latitude = spatial.FormatCoordinate(p.Lat)
	a.Longitude = spatial.FormatCoordinate(p.Lng)
}

// ClearPoint drops the final coordinate.
func (a *ReconciledAddress) ClearPoint() {
	a.Latitude, a.Longitude = "", ""
}

// GroupingAddress is the text the grouping signature is computed on: the
// corrected address when there is one, the original otherwise.
func (a ReconciledAddress) GroupingAddress() string {
	if strings.TrimSpace(a.CorrectedAddress) != "" {
		return a.CorrectedAddress
	}

	return a.OriginalAddress
}

// correctedAddress rebuilds "road, number" from the geocoder when the
// provider found the same house number as the row; otherwise the original
// text is kept so the grouping signature does not drift.
func correctedAddress(original string, area geocoding.AdministrativeArea) string {
	road := strings.TrimSpace(area.Road)
	number := strings.TrimSpace(area.HouseNumber)

	if road == "" || number == "" {
		return original
	}

	if want := address.HouseNumber(original); want == "" || want != address.HouseNumber(road+", "+number) {
		return original
	}

	return road + ", " + number
}
