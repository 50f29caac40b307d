// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"fmt"
	"strings"
)

// Status is the trust level of a reconciled coordinate.
type Status string

const (
	// StatusValid means the coordinate came from a trusted source.
	StatusValid Status = "valid"
	// StatusCorrected means a human placed the coordinate.
	StatusCorrected Status = "corrected"
	// StatusPending means no coordinate source could be trusted.
	StatusPending Status = "pending"
	// StatusMismatch is accepted from imported sessions; the reconciler emits
	// StatusPending for disagreements.
	StatusMismatch Status = "mismatch"
)

// ParseStatus accepts any casing of the four known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusValid, StatusCorrected, StatusPending, StatusMismatch:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q", s)
	}
}

// Severity orders statuses for worst-case rollup: pending > mismatch >
// corrected > valid.
func (s Status) Severity() int {
	switch s {
	case StatusValid:
		return 0
	case StatusCorrected:
		return 1
	case StatusMismatch:
		return 2
	default:
		return 3
	}
}

// NeedsReview reports whether a human still has to place the stop.
func (s Status) NeedsReview() bool {
	return s == StatusPending || s == StatusMismatch
}

// Worst returns the more severe of a and b.
func Worst(a, b Status) Status {
	if b.Severity() > a.Severity() {
		return b
	}

	return a
}
