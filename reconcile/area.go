// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"strings"

	"github.com/rotasmart/rotasmart/address"
	"github.com/rotasmart/rotasmart/geocoding"
)

// AreaMismatch names the declared fields the geocoder disagreed with.
type AreaMismatch []string

// MatchArea compares the row's declared neighborhood, city and state with the
// administrative area returned by the geocoder. Empty declared fields always
// match. A declared field matches when either normalized value contains the
// other. The returned slice lists the fields that did not match.
func MatchArea(row OrderRow, area geocoding.AdministrativeArea) AreaMismatch {
	var miss AreaMismatch

	if !contains(address.NormalizeText(row.Neighborhood), address.NormalizeText(area.District())) {
		miss = append(miss, "neighborhood")
	}

	if !contains(address.NormalizeText(row.City), address.NormalizeText(area.Locality())) {
		miss = append(miss, "city")
	}

	if !contains(address.NormalizeState(row.State), address.NormalizeState(area.State)) {
		miss = append(miss, "state")
	}

	return miss
}

func contains(declared, returned string) bool {
	if declared == "" {
		return true
	}

	if returned == "" {
		return false
	}

	return strings.Contains(declared, returned) || strings.Contains(returned, declared)
}
