// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited bounds the aggregate request rate to a Geocoder no matter how
// many goroutines share it.
type RateLimited struct {
	next    Geocoder
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond requests per second to next, one at a time.
// A non-positive rate disables limiting.
func NewRateLimited(next Geocoder, perSecond float64) *RateLimited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}

	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, 1)}
}

// Interval returns the minimum spacing between requests.
func (r *RateLimited) Interval() time.Duration {
	if r.limiter.Limit() == rate.Inf {
		return 0
	}

	return time.Duration(float64(time.Second) / float64(r.limiter.Limit()))
}

// Geocode implements Geocoder. Waiting for a slot honors ctx; a cancelled
// wait is reported as a timeout.
func (r *RateLimited) Geocode(ctx context.Context, q Query) (*Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &GeocodingError{Type: ErrorTypeTimeout, Message: "waiting for rate limiter", Err: err}
	}

	return r.next.Geocode(ctx, q)
}
