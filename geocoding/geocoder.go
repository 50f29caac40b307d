// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding wraps the external providers that turn free-text addresses
// into coordinates.
package geocoding

import (
	"context"

	"github.com/rotasmart/rotasmart/spatial"
)

// Query is a free-text search restricted to one country.
type Query struct {
	Text    string
	Country string // ISO 3166-1 alpha-2, e.g. "br"
}

// AdministrativeArea holds the structured fields a provider returns for its
// best match. Empty fields were not reported.
type AdministrativeArea struct {
	Road          string `json:"road,omitempty"`
	HouseNumber   string `json:"house_number,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	City          string `json:"city,omitempty"`
	Town          string `json:"town,omitempty"`
	Village       string `json:"village,omitempty"`
	County        string `json:"county,omitempty"`
	State         string `json:"state,omitempty"`
	Postcode      string `json:"postcode,omitempty"`
}

// Locality returns city, town or village, falling back to county.
func (a AdministrativeArea) Locality() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.County} {
		if v != "" {
			return v
		}
	}

	return ""
}

// District returns suburb, falling back to neighbourhood.
func (a AdministrativeArea) District() string {
	if a.Suburb != "" {
		return a.Suburb
	}

	return a.Neighbourhood
}

// Result is the best match a provider found.
type Result struct {
	Point       spatial.Point
	DisplayName string
	Area        AdministrativeArea
	Confidence  string // high, medium, low
	Provider    string
}

// Geocoder resolves a query to its best match. A query with no match returns
// (nil, nil); errors are reserved for provider or transport failures.
type Geocoder interface {
	Geocode(ctx context.Context, q Query) (*Result, error)
}

// GeocoderFunc adapts a function to the Geocoder interface.
type GeocoderFunc func(ctx context.Context, q Query) (*Result, error)

// Geocode implements Geocoder.
func (f GeocoderFunc) Geocode(ctx context.Context, q Query) (*Result, error) {
	return f(ctx, q)
}
