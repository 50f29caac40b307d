// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// LocationIQURL is the LocationIQ forward geocoding endpoint.
	LocationIQURL = "https://us1.locationiq.com/v1/search"
	// NominatimURL is the public OpenStreetMap Nominatim endpoint.
	NominatimURL = "https://nominatim.openstreetmap.org/search"
)

// NominatimGeocoder queries a Nominatim-compatible search API. LocationIQ
// speaks the same protocol and needs an API key; public Nominatim does not.
type NominatimGeocoder struct {
	baseURL    string
	apiKey     string
	provider   string
	httpClient *http.Client
}

// NewLocationIQGeocoder returns a client for LocationIQ. An empty baseURL
// selects LocationIQURL.
func NewLocationIQGeocoder(client *http.Client, baseURL, apiKey string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = LocationIQURL
	}

	return &NominatimGeocoder{baseURL: baseURL, apiKey: apiKey, provider: "locationiq", httpClient: client}
}

// NewNominatimGeocoder returns a client for a Nominatim server. An empty
// baseURL selects NominatimURL.
func NewNominatimGeocoder(client *http.Client, baseURL string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = NominatimURL
	}

	return &NominatimGeocoder{baseURL: baseURL, provider: "nominatim", httpClient: client}
}

type nominatimPlace struct {
	Lat         string             `json:"lat"`
	Lon         string             `json:"lon"`
	DisplayName string             `json:"display_name"`
	Class       string             `json:"class"`
	Type        string             `json:"type"`
	Importance  float64            `json:"importance"`
	Address     AdministrativeArea `json:"address"`
}

// Geocode implements Geocoder.
func (g *NominatimGeocoder) Geocode(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	params.Set("q", q.Text)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")

	if q.Country != "" {
		params.Set("countrycodes", strings.ToLower(q.Country))
	}

	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode == http.StatusNotFound {
		// LocationIQ answers "Unable to geocode" with a 404
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	if len(places) == 0 {
		return nil, nil
	}

	place := places[0]

	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: fmt.Sprintf("invalid latitude %q", place.Lat), Err: err}
	}

	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: fmt.Sprintf("invalid longitude %q", place.Lon), Err: err}
	}

	result := &Result{
		DisplayName: place.DisplayName,
		Area:        place.Address,
		Confidence:  nominatimConfidence(place),
		Provider:    g.provider,
	}
	result.Point.Lat, result.Point.Lng = lat, lng

	return result, nil
}

// nominatimConfidence grades a match by how specific the returned feature is.
func nominatimConfidence(p nominatimPlace) string {
	switch {
	case p.Address.HouseNumber != "" || p.Class == "building" || p.Type == "house":
		return "high"
	case p.Address.Road != "" || p.Class == "highway":
		return "medium"
	default:
		return "low"
	}
}
