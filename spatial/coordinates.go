// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NormalizeCoordinate converts a loosely formatted coordinate into a float.
// Strings may use a comma as decimal separator ("-23,5505"). The boolean
// result is false when the value is absent or cannot be parsed.
func NormalizeCoordinate(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, !math.IsNaN(v)
	case float32:
		return float64(v), !math.IsNaN(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case *float64:
		if v == nil {
			return 0, false
		}

		return *v, !math.IsNaN(*v)
	case string:
		return parseCoordinateString(v)
	case fmt.Stringer:
		return parseCoordinateString(v.String())
	default:
		return 0, false
	}
}

func parseCoordinateString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	s = strings.Replace(s, ",", ".", 1)

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return f, true
}

// IsValidCoordinate reports whether lat/lng is a usable delivery coordinate.
// (0,0) is rejected: spreadsheets use it as a "no data" placeholder.
func IsValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}

	if lat < -90 || lat > 90 {
		return false
	}

	if lng < -180 || lng > 180 {
		return false
	}

	return lat != 0 || lng != 0
}

// ParsePoint normalizes a raw latitude/longitude pair and validates it.
func ParsePoint(rawLat, rawLng any) (Point, bool) {
	lat, ok := NormalizeCoordinate(rawLat)
	if !ok {
		return Point{}, false
	}

	lng, ok := NormalizeCoordinate(rawLng)
	if !ok {
		return Point{}, false
	}

	if !IsValidCoordinate(lat, lng) {
		return Point{}, false
	}

	return Point{Lat: lat, Lng: lng}, true
}

// FormatCoordinate renders a coordinate with six decimals (~0.1 m).
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
