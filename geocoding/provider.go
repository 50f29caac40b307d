// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/rotasmart/rotasmart/utils/httputils"
)

// UserAgent identifies the application to providers that require it.
const UserAgent = "RotaSmart/1.0 (+https://github.com/rotasmart/rotasmart)"

// Config selects and tunes a provider.
type Config struct {
	Provider string // locationiq, nominatim, google
	APIKey   string
	URL      string
	Country  string
	Rate     float64 // requests per second
	Timeout  time.Duration
	Trace    io.Writer

	// Google only: where to find a key when APIKey is empty.
	Project        string
	KeyDisplayName string
}

// New builds the configured provider wrapped in a rate limiter.
func New(ctx context.Context, cfg Config) (Geocoder, error) {
	client := httputils.NewClient(httputils.ClientOptions{
		Timeout:   cfg.Timeout,
		UserAgent: UserAgent,
		Trace:     cfg.Trace,
	})

	var g Geocoder

	switch cfg.Provider {
	case "locationiq", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("locationiq needs geocoder.api_key")
		}

		g = NewLocationIQGeocoder(client, cfg.URL, cfg.APIKey)
	case "nominatim":
		g = NewNominatimGeocoder(client, cfg.URL)
	case "google":
		key := cfg.APIKey
		if key == "" {
			log.Println("geocoder.api_key is not set. Attempting to retrieve via ADC...")

			var err error

			key, err = APIKeyFromADC(ctx, cfg.Project, cfg.KeyDisplayName)
			if err != nil {
				return nil, fmt.Errorf("google maps needs an API key: %w", err)
			}

			log.Println("Retrieved Google Maps API key via ADC")
		}

		g = NewGoogleMapsGeocoder(client, cfg.URL, key)
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", cfg.Provider)
	}

	return NewRateLimited(g, cfg.Rate), nil
}
