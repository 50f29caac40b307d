// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"slices"
	"strings"

	apikeys "cloud.google.com/go/apikeys/apiv2"
	"cloud.google.com/go/apikeys/apiv2/apikeyspb"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/iterator"
)

// GoogleMapsURL is the Google Maps Geocoding endpoint.
const GoogleMapsURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder. An empty baseURL
// selects GoogleMapsURL.
func NewGoogleMapsGeocoder(client *http.Client, baseURL, apiKey string) *GoogleMapsGeocoder {
	if baseURL == "" {
		baseURL = GoogleMapsURL
	}

	return &GoogleMapsGeocoder{baseURL: baseURL, apiKey: apiKey, httpClient: client}
}

type googleAddressComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress  string                   `json:"formatted_address"`
		AddressComponents []googleAddressComponent `json:"address_components"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, OVER_QUERY_LIMIT, ...
	ErrorMessage string `json:"error_message"`
}

// googleArea maps address components onto the Nominatim field names.
func googleArea(components []googleAddressComponent) AdministrativeArea {
	var area AdministrativeArea

	for _, c := range components {
		has := func(t string) bool { return slices.Contains(c.Types, t) }

		switch {
		case has("street_number"):
			area.HouseNumber = c.LongName
		case has("route"):
			area.Road = c.LongName
		case has("sublocality_level_1"), has("sublocality"):
			area.Suburb = c.LongName
		case has("neighborhood"):
			area.Neighbourhood = c.LongName
		case has("locality"):
			area.City = c.LongName
		case has("administrative_area_level_2"):
			area.County = c.LongName
		case has("administrative_area_level_1"):
			area.State = c.LongName
		case has("postal_code"):
			area.Postcode = c.LongName
		}
	}

	return area
}

// Geocode implements Geocoder.
func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	params.Set("address", q.Text)
	params.Set("key", g.apiKey)

	if q.Country != "" {
		params.Set("region", strings.ToLower(q.Country))
		params.Set("components", "country:"+strings.ToUpper(q.Country))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, string(body))
	}

	var gmResp googleMapsResponse
	if err := json.Unmarshal(body, &gmResp); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	switch gmResp.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	case "OVER_QUERY_LIMIT":
		return nil, &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "google maps: over_query_limit", Err: errorMessage(gmResp.ErrorMessage)}
	case "REQUEST_DENIED":
		return nil, &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "google maps: request denied", Err: errorMessage(gmResp.ErrorMessage)}
	case "INVALID_REQUEST":
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "google maps: invalid request", Err: errorMessage(gmResp.ErrorMessage)}
	default:
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "google maps status: " + gmResp.Status, Err: errorMessage(gmResp.ErrorMessage)}
	}

	if len(gmResp.Results) == 0 {
		return nil, nil
	}

	result := gmResp.Results[0]

	confidence := "low"

	switch result.Geometry.LocationType {
	case "ROOFTOP":
		confidence = "high"
	case "RANGE_INTERPOLATED":
		confidence = "medium"
	case "GEOMETRIC_CENTER", "APPROXIMATE":
		confidence = "low"
	}

	out := &Result{
		DisplayName: result.FormattedAddress,
		Area:        googleArea(result.AddressComponents),
		Confidence:  confidence,
		Provider:    "google_maps",
	}
	out.Point.Lat, out.Point.Lng = result.Geometry.Location.Lat, result.Geometry.Location.Lng

	return out, nil
}

func errorMessage(msg string) error {
	if msg == "" {
		return nil
	}

	return errors.New(msg)
}

// APIKeyFromADC looks up the key named displayName in projectID through the
// API Keys service, using Application Default Credentials. An empty projectID
// is taken from the credentials.
func APIKeyFromADC(ctx context.Context, projectID, displayName string) (string, error) {
	creds, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return "", fmt.Errorf("finding default credentials: %w", err)
	}

	if projectID == "" {
		projectID = creds.ProjectID
	}

	if projectID == "" {
		return "", errors.New("no project ID in credentials; set geocoder.project")
	}

	client, err := apikeys.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("creating apikeys client: %w", err)
	}
	defer client.Close()

	it := client.ListKeys(ctx, &apikeyspb.ListKeysRequest{
		Parent: fmt.Sprintf("projects/%s/locations/global", projectID),
	})

	for {
		key, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		if err != nil {
			return "", fmt.Errorf("listing keys: %w", err)
		}

		if key.DisplayName != displayName {
			continue
		}

		// ListKeys redacts the secret
		log.Printf("Found key resource '%s', retrieving secret...", key.Name)

		resp, err := client.GetKeyString(ctx, &apikeyspb.GetKeyStringRequest{Name: key.Name})
		if err != nil {
			return "", fmt.Errorf("getting key string: %w", err)
		}

		if resp.KeyString == "" {
			return "", fmt.Errorf("key '%s' has an empty key string", displayName)
		}

		return resp.KeyString, nil
	}

	return "", fmt.Errorf("key with display name '%s' not found in project %s", displayName, projectID)
}
