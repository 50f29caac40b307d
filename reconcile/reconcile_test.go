// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rotasmart/rotasmart/geocoding"
	"github.com/rotasmart/rotasmart/learning"
	"github.com/rotasmart/rotasmart/spatial"
)

type mockGeocoder struct {
	mock.Mock
}

func (m *mockGeocoder) Geocode(ctx context.Context, q geocoding.Query) (*geocoding.Result, error) {
	args := m.Called(ctx, q)

	res, _ := args.Get(0).(*geocoding.Result)

	return res, args.Error(1)
}

// countingGeocoder answers every query with res/err and counts the calls.
func countingGeocoder(res *geocoding.Result, err error) (geocoding.Geocoder, *atomic.Int32) {
	var calls atomic.Int32

	return geocoding.GeocoderFunc(func(context.Context, geocoding.Query) (*geocoding.Result, error) {
		calls.Add(1)

		return res, err
	}), &calls
}

func sampleRow() OrderRow {
	return OrderRow{
		Index:        0,
		Address:      "R. Exemplo, 123, Fundos",
		Neighborhood: "Centro",
		City:         "São Paulo",
		State:        "SP",
		Latitude:     "-23,550520",
		Longitude:    "-46,633308",
		Sequences:    []string{"1"},
	}
}

func geocoded(lat, lng float64) *geocoding.Result {
	return &geocoding.Result{
		Point:       spatial.Point{Lat: lat, Lng: lng},
		DisplayName: "Rua Exemplo, 123, Centro, São Paulo, SP, Brasil",
		Area: geocoding.AdministrativeArea{
			Road:        "Rua Exemplo",
			HouseNumber: "123",
			Suburb:      "Centro",
			City:        "São Paulo",
			State:       "São Paulo",
		},
		Provider: "test",
	}
}

func TestReconcile_SourceAgreesWithGeocoder(t *testing.T) {
	g := new(mockGeocoder)
	g.On("Geocode", mock.Anything, geocoding.Query{
		Text:    "R. Exemplo, 123, Fundos, Centro, São Paulo, SP",
		Country: "br",
	}).Return(geocoded(-23.550420, -46.633308), nil).Once()

	got := New(g, nil, DefaultOptions()).Reconcile(context.Background(), sampleRow())

	g.AssertExpectations(t)
	assert.Equal(t, StatusValid, got.Status)
	assert.Equal(t, "-23.550520", got.Latitude, "the spreadsheet coordinate is kept")
	assert.Equal(t, "-46.633308", got.Longitude)
	assert.Equal(t, "Rua Exemplo, 123", got.CorrectedAddress)
	assert.Equal(t, "R. Exemplo, 123, Fundos", got.OriginalAddress)
	assert.Contains(t, got.DisplayName, "Rua Exemplo, 123")
	assert.Equal(t, "from-source;distance-m=11;geocoder-agrees", got.Note)
	assert.False(t, got.Learned)
	assert.Equal(t, "rua_exemplo_123_centro_sao_paulo_sp", got.LearningKey)
}

func TestReconcile_SourceDisagreesWithGeocoder(t *testing.T) {
	g, calls := countingGeocoder(geocoded(-23.560520, -46.633308), nil)

	got := New(g, nil, DefaultOptions()).Reconcile(context.Background(), sampleRow())

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StatusPending, got.Status)
	assert.True(t, HasNote(got.Note, NoteGeocoderDisagrees))

	src, ok := NoteValue(got.Note, NoteSourceCoordinate)
	require.True(t, ok)
	assert.Equal(t, "-23.550520,-46.633308", src)

	geo, ok := NoteValue(got.Note, NoteGeocodedCoordinate)
	require.True(t, ok)
	assert.Equal(t, "-23.560520,-46.633308", geo)

	d, ok := NoteValue(got.Note, NoteDistance)
	require.True(t, ok)
	assert.Equal(t, "1112", d)
}

func TestReconcile_ThresholdIsConfigurable(t *testing.T) {
	g, _ := countingGeocoder(geocoded(-23.560520, -46.633308), nil)

	opts := DefaultOptions()
	opts.DistanceThreshold = 2000

	got := New(g, nil, opts).Reconcile(context.Background(), sampleRow())
	assert.Equal(t, StatusValid, got.Status)
	assert.Equal(t, "-23.550520", got.Latitude)
}

func TestReconcile_BlockAndLotSkipsGeocoder(t *testing.T) {
	g, calls := countingGeocoder(geocoded(-23.550520, -46.633308), nil)
	r := New(g, nil, DefaultOptions())

	row := sampleRow()
	row.Address = "Quadra 5 Lote 10, Setor Sul"

	got := r.Reconcile(context.Background(), row)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "from-source;block-and-lot", got.Note)
	assert.Equal(t, "Quadra 5 Lote 10, Setor Sul", got.CorrectedAddress)

	row.Latitude, row.Longitude = "", ""
	got = r.Reconcile(context.Background(), row)
	assert.Equal(t, StatusPending, got.Status)
	assert.Empty(t, got.Latitude)

	assert.Equal(t, int32(0), calls.Load())
}

func TestReconcile_LearnedOverridesEverything(t *testing.T) {
	ctx := context.Background()
	cache := learning.NewCache(learning.NewMemoryStore())
	g, calls := countingGeocoder(geocoded(-23.550520, -46.633308), nil)
	r := New(g, cache, DefaultOptions())

	row := sampleRow()
	require.NoError(t, cache.Save(ctx, row.LearningKey(), -23.5, -46.6))

	got := r.Reconcile(ctx, row)
	assert.Equal(t, StatusValid, got.Status)
	assert.True(t, got.Learned)
	assert.Equal(t, "-23.500000", got.Latitude)
	assert.Equal(t, "-46.600000", got.Longitude)
	assert.Equal(t, NoteLearned, got.Note)

	// a different unit of the same building shares the key
	row.Address = "Rua Exemplo, 123a, Casa 2"
	got = r.Reconcile(ctx, row)
	assert.True(t, got.Learned)

	// learned entries win over block-and-lot detection too
	block := OrderRow{Address: "Qd 5 Lt 10", City: "Goiânia", State: "GO"}
	require.NoError(t, cache.Save(ctx, block.LearningKey(), -16.68, -49.25))

	got = r.Reconcile(ctx, block)
	assert.Equal(t, StatusValid, got.Status)
	assert.True(t, got.Learned)

	assert.Equal(t, int32(0), calls.Load())
}

func TestReconcile_GeocoderOnly(t *testing.T) {
	g, _ := countingGeocoder(geocoded(-23.550420, -46.633308), nil)

	row := sampleRow()
	row.Latitude, row.Longitude = "", ""

	got := New(g, nil, DefaultOptions()).Reconcile(context.Background(), row)
	assert.Equal(t, StatusValid, got.Status)
	assert.Equal(t, "-23.550420", got.Latitude)
	assert.Equal(t, "Rua Exemplo, 123", got.CorrectedAddress)
	assert.Equal(t, NoteGeocoderMatch, got.Note)
}

func TestReconcile_GeocoderFailures(t *testing.T) {
	tests := []struct {
		name       string
		res        *geocoding.Result
		err        error
		withSource bool
		wantStatus Status
		wantNote   string
	}{
		{
			name:       "not found without source",
			wantStatus: StatusPending,
			wantNote:   "geocoder-not-found",
		},
		{
			name:       "not found with source",
			withSource: true,
			wantStatus: StatusValid,
			wantNote:   "from-source;geocoder-not-found;geocoding-skipped",
		},
		{
			name:       "timeout with source",
			err:        &geocoding.GeocodingError{Type: geocoding.ErrorTypeTimeout, Message: "deadline"},
			withSource: true,
			wantStatus: StatusValid,
			wantNote:   "from-source;geocoder-error=timeout;geocoding-skipped",
		},
		{
			name:       "network error without source",
			err:        errors.New("connection refused"),
			wantStatus: StatusPending,
			wantNote:   "geocoder-error=unknown",
		},
		{
			name:       "quota",
			err:        &geocoding.GeocodingError{Type: geocoding.ErrorTypeQuotaExceeded},
			wantStatus: StatusPending,
			wantNote:   "geocoder-error=quota",
		},
		{
			name: "area mismatch",
			res: &geocoding.Result{
				Point: spatial.Point{Lat: -22.9, Lng: -47.06},
				Area:  geocoding.AdministrativeArea{Suburb: "Centro", City: "Campinas", State: "São Paulo"},
			},
			wantStatus: StatusPending,
			wantNote:   "geocoder-area-mismatch=city",
		},
		{
			name:       "degenerate coordinate",
			res:        &geocoding.Result{},
			wantStatus: StatusPending,
			wantNote:   "geocoder-not-found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := countingGeocoder(tt.res, tt.err)

			row := sampleRow()
			if !tt.withSource {
				row.Latitude, row.Longitude = "", ""
			}

			got := New(g, nil, DefaultOptions()).Reconcile(context.Background(), row)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantNote, got.Note)
			assert.Equal(t, row.Address, got.CorrectedAddress)

			if tt.wantStatus == StatusValid {
				_, ok := got.Point()
				assert.True(t, ok, "valid rows always carry a coordinate")
			}
		})
	}
}

func TestReconcile_SkipAreaMatch(t *testing.T) {
	g, _ := countingGeocoder(&geocoding.Result{
		Point: spatial.Point{Lat: -22.9, Lng: -47.06},
		Area:  geocoding.AdministrativeArea{City: "Campinas"},
	}, nil)

	opts := DefaultOptions()
	opts.SkipAreaMatch = true

	row := sampleRow()
	row.Latitude, row.Longitude = "", ""

	got := New(g, nil, opts).Reconcile(context.Background(), row)
	assert.Equal(t, StatusValid, got.Status)
	assert.Equal(t, "-22.900000", got.Latitude)
}

func TestReconcile_InvalidSourceCoordinate(t *testing.T) {
	row := sampleRow()
	row.Latitude, row.Longitude = "0", "0"

	got := New(nil, nil, DefaultOptions()).Reconcile(context.Background(), row)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "invalid-source-coordinate;geocoder-disabled", got.Note)
	assert.Empty(t, got.Latitude)
}

func TestReconcile_NoGeocoder(t *testing.T) {
	got := New(nil, nil, Options{}).Reconcile(context.Background(), sampleRow())
	assert.Equal(t, StatusValid, got.Status)
	assert.Equal(t, "from-source;geocoder-disabled", got.Note)
}

func TestOrderRow_QueryText(t *testing.T) {
	row := OrderRow{Address: " Rua A, 1 ", City: "Santos", State: "SP"}
	assert.Equal(t, "Rua A, 1, Santos, SP", row.QueryText())
	assert.False(t, row.HasSourceCoordinate())
}

func TestCorrectedAddress(t *testing.T) {
	area := geocoding.AdministrativeArea{Road: "Avenida Paulista", HouseNumber: "1000"}

	assert.Equal(t, "Avenida Paulista, 1000", correctedAddress("Av. Paulista 1000 - sala 5", area))
	assert.Equal(t, "Av. Paulista 999", correctedAddress("Av. Paulista 999", area), "different number keeps original")
	assert.Equal(t, "Av. Paulista", correctedAddress("Av. Paulista", area))
	assert.Equal(t, "Rua B, 1", correctedAddress("Rua B, 1", geocoding.AdministrativeArea{Road: "Rua B"}))
}
