// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversineDistance(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Point
		want  float64
		delta float64
	}{
		{
			name:  "same point",
			a:     Point{Lat: -23.55052, Lng: -46.633309},
			b:     Point{Lat: -23.55052, Lng: -46.633309},
			want:  0,
			delta: 1e-6,
		},
		{
			name:  "about 111m north",
			a:     Point{Lat: -23.0, Lng: -46.0},
			b:     Point{Lat: -22.999, Lng: -46.0},
			want:  111.19,
			delta: 0.5,
		},
		{
			name:  "sao paulo to rio",
			a:     Point{Lat: -23.55052, Lng: -46.633309},
			b:     Point{Lat: -22.906847, Lng: -43.172897},
			want:  360_750,
			delta: 2_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.a.HaversineDistance(&tt.b), tt.delta)
			assert.InDelta(t, tt.want, tt.b.HaversineDistance(&tt.a), tt.delta)
		})
	}
}

func TestPointScan(t *testing.T) {
	var p Point

	require.NoError(t, p.Scan([]byte("POINT (-46.633309 -23.55052)")))
	assert.InDelta(t, -23.55052, p.Lat, 1e-9)
	assert.InDelta(t, -46.633309, p.Lng, 1e-9)

	require.NoError(t, p.Scan(map[string]interface{}{"x": -43.1, "y": -22.9}))
	assert.InDelta(t, -22.9, p.Lat, 1e-9)
	assert.InDelta(t, -43.1, p.Lng, 1e-9)

	require.NoError(t, p.Scan(nil))
	assert.Equal(t, Point{}, p)

	assert.Error(t, p.Scan(42))
}

func TestPointCell(t *testing.T) {
	p := Point{Lat: -23.55052, Lng: -46.633309}

	cell, err := p.Cell(CellResolution)
	require.NoError(t, err)
	assert.True(t, cell.IsValid())
	assert.Equal(t, CellResolution, cell.Resolution())

	// a few meters away stays in the same hexagon or a direct neighbor
	q := Point{Lat: -23.55053, Lng: -46.633310}

	disk, err := p.Neighborhood(CellResolution, 1)
	require.NoError(t, err)

	qCell, err := q.Cell(CellResolution)
	require.NoError(t, err)
	assert.Contains(t, disk, qCell)
}
