// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"regexp"
	"strings"
)

// KeyDelimiter separates the components of a learning key.
const KeyDelimiter = "_"

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9_]`)

// Location carries the address fields that identify a building.
type Location struct {
	Address      string
	Neighborhood string
	City         string
	State        string
}

func keyPart(s string) string {
	s = strings.ReplaceAll(fold(s), " ", KeyDelimiter)

	return unsafeKeyChars.ReplaceAllString(s, "")
}

// BuildLearningKey derives the learned-location key for an address. The
// complement is not part of the key, so every unit of a building shares one
// coordinate. An address without a signature has no key.
func BuildLearningKey(loc Location) string {
	signature := ExtractNormalizedStreetAndNumber(loc.Address)
	if signature == "" {
		return ""
	}

	parts := []string{
		keyPart(signature),
		keyPart(loc.Neighborhood),
		keyPart(loc.City),
		keyPart(loc.State),
	}

	return strings.Join(parts, KeyDelimiter)
}
