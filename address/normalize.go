// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

// Package address canonicalizes free-text Brazilian delivery addresses.
//
// The grouping signature produced by ExtractNormalizedStreetAndNumber keeps
// only street and house number, so rows for different units of the same
// building collapse into one stop. The complement (apartment, block, "fundos")
// is extracted separately and only used for display and equality checks.
package address

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rotasmart/rotasmart/utils/textutils"
)

type abbreviation struct {
	re   *regexp.Regexp
	full string
}

// street-type prefixes, matched at the start of a comma segment on folded text.
var abbreviations = []abbreviation{
	{regexp.MustCompile(`(^|,)\s*(av|avda|aven)\b\.?`), "avenida"},
	{regexp.MustCompile(`(^|,)\s*r\b\.?`), "rua"},
	{regexp.MustCompile(`(^|,)\s*(rod|rdv)\b\.?`), "rodovia"},
	{regexp.MustCompile(`(^|,)\s*(tv|trav)\b\.?`), "travessa"},
	{regexp.MustCompile(`(^|,)\s*(al|alam)\b\.?`), "alameda"},
	{regexp.MustCompile(`(^|,)\s*(estr|est)\b\.?`), "estrada"},
	{regexp.MustCompile(`(^|,)\s*(pc|pca)\b\.?`), "praca"},
	{regexp.MustCompile(`(^|,)\s*(lgo|lg)\b\.?`), "largo"},
	{regexp.MustCompile(`(^|,)\s*(bc)\b\.?`), "beco"},
	{regexp.MustCompile(`(^|,)\s*(vd|viad)\b\.?`), "viaduto"},
}

var (
	// reference phrases that never belong to the street name
	referencePhrases = regexp.MustCompile(`\b(proximo a|proximo ao|proximo|perto de|em frente ao|em frente a|ao lado de|ao lado do)\b`)
	noNumberMarker   = regexp.MustCompile(`\bs\s*/\s*n(o\b|[°º]|\b)\.?|\bsem numero\b|\bsn\b`)
	numberPrefix     = regexp.MustCompile(`\b(n[o°º]?|num|numero)[\s,]*[.°º]?[\s,]*(\d)`)
	thousandsDot     = regexp.MustCompile(`(\d)\.(\d{3})\b`)
	unsafeChars      = regexp.MustCompile(`[^a-z0-9\s\-,.]`)

	// last digit run preceded by a separator, followed only by a short suffix
	trailingNumber = regexp.MustCompile(`^(.*?)[,\s]+(\d+)[^\d]*$`)
	firstNumber    = regexp.MustCompile(`\d+`)

	// "Av. Paulista 1000 - sala 5": a dash complement after the number
	dashComplement = regexp.MustCompile(`^(.*?\d+\s*[A-Za-z]?)\s+-\s+(.+)$`)

	numberSegment = regexp.MustCompile(`^\d+`)
	endsInNumber  = regexp.MustCompile(`[\s]\d+\s*[a-z]?$`)
)

func fold(s string) string {
	return textutils.CollapseSpaces(textutils.LowerASCIIFolding(s))
}

func expandAbbreviations(s string) string {
	for _, a := range abbreviations {
		s = a.re.ReplaceAllString(s, "${1} "+a.full+" ")
	}

	return s
}

func splitSegments(address string) []string {
	parts := strings.Split(address, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts
}

// splitDashComplement splits a first segment written as "street number -
// complement". ok is false when the segment has no such form or a later
// segment carries the house number.
func splitDashComplement(segments []string) (street, complement string, ok bool) {
	if numberSegmentIndex(segments) > 0 {
		return "", "", false
	}

	// "123 - Av Paulista" is a leading number, not a complement
	m := dashComplement.FindStringSubmatch(segments[0])
	if m == nil || numberSegment.MatchString(m[1]) {
		return "", "", false
	}

	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// numberSegmentIndex returns the index of the comma segment carrying the house
// number, or -1. A segment starting with digits ("123", "123a", "123 B") is the
// number; otherwise a first segment ending in digits ("Rua X 123") is.
func numberSegmentIndex(segments []string) int {
	for i := 1; i < len(segments); i++ {
		if numberSegment.MatchString(segments[i]) {
			return i
		}
	}

	if len(segments) > 1 && endsInNumber.MatchString(strings.ToLower(segments[0])) {
		return 0
	}

	return -1
}

// ExtractComplement returns the text following the street and number segments,
// e.g. "Casa 2" for "Rua Exemplo, 123a, Casa 2". A unit letter glued to the
// number stays with the number.
func ExtractComplement(address string) string {
	segments := splitSegments(address)

	idx := numberSegmentIndex(segments)

	if _, complement, ok := splitDashComplement(segments); ok {
		segments[0] = complement
		idx = -1
	} else if idx < 0 {
		if len(segments) < 3 {
			return ""
		}

		idx = 1
	}

	rest := make([]string, 0, len(segments)-idx-1)

	for _, s := range segments[idx+1:] {
		if s != "" {
			rest = append(rest, s)
		}
	}

	return strings.Join(rest, ", ")
}

// NormalizeComplement folds case and diacritics and collapses whitespace. The
// result is for equality comparison only.
func NormalizeComplement(text string) string {
	return fold(text)
}

// StreetAndNumber returns the display portion of an address: everything up to
// and including the house number segment, or the first two segments when no
// number segment is recognizable.
func StreetAndNumber(address string) string {
	segments := splitSegments(address)

	if street, _, ok := splitDashComplement(segments); ok {
		return street
	}

	idx := numberSegmentIndex(segments)
	if idx < 0 {
		idx = min(1, len(segments)-1)
	}

	kept := make([]string, 0, idx+1)

	for _, s := range segments[:idx+1] {
		if s != "" {
			kept = append(kept, s)
		}
	}

	return strings.Join(kept, ", ")
}

// dropComplement removes the complement segments from a folded address.
func dropComplement(s string) string {
	segments := splitSegments(s)

	if street, _, ok := splitDashComplement(segments); ok {
		return street
	}

	idx := numberSegmentIndex(segments)
	if idx < 0 {
		return s
	}

	kept := segments[:idx+1]
	if idx > 0 {
		// "45 - apto 12" keeps only the house number
		kept[idx] = numberSegment.FindString(kept[idx])
	}

	return strings.Join(kept, ", ")
}

// streetName cleans a street and expands a street-type abbreviation that only
// surfaces once leading punctuation is gone.
func streetName(s string) string {
	return cleanStreet(expandAbbreviations(cleanStreet(s)))
}

func cleanStreet(s string) string {
	s = strings.ReplaceAll(s, ",", " ")
	s = textutils.CollapseSpaces(s)

	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '.' || r == ','
	})
}

// ExtractNormalizedStreetAndNumber computes the grouping signature of an
// address: "<normalized street> <number>", or the normalized street alone
// when there is no number. Applying it to its own output is a no-op.
func ExtractNormalizedStreetAndNumber(address string) string {
	s := fold(address)
	s = referencePhrases.ReplaceAllString(s, " ")
	s = noNumberMarker.ReplaceAllString(s, " ")
	s = expandAbbreviations(s)
	s = numberPrefix.ReplaceAllString(s, "$2")
	s = thousandsDot.ReplaceAllString(s, "$1$2")
	s = unsafeChars.ReplaceAllString(s, "")
	s = expandAbbreviations(strings.TrimLeft(s, " -.,"))
	s = textutils.CollapseSpaces(s)
	s = dropComplement(s)

	if m := trailingNumber.FindStringSubmatch(s); m != nil {
		if street := streetName(m[1]); street != "" {
			return street + " " + m[2]
		}

		return m[2]
	}

	loc := firstNumber.FindStringIndex(s)
	if loc == nil {
		return streetName(s)
	}

	number := s[loc[0]:loc[1]]

	street := streetName(s[:loc[0]])
	if street == "" {
		street = streetName(s[loc[1]:])
	}

	if street == "" {
		return number
	}

	return street + " " + number
}

var blockAndLot = []*regexp.Regexp{
	regexp.MustCompile(`\b(quadra|qd|qda|qdr)\b\.?\s*[a-z0-9-]+.*\b(lote|lt|lte|lts)\b\.?\s*[a-z0-9-]+`),
	regexp.MustCompile(`\bq\.?\s*\d+[a-z]?\s*,?\s*\bl\.?\s*\d+`),
	regexp.MustCompile(`\b(lote|lt)\b\.?\s*\d+.*\b(quadra|qd)\b\.?\s*[a-z0-9-]+`),
}

// IsBlockAndLot reports whether the address is written as subdivision block
// and lot references ("Qd 12 Lt 5") that free-text geocoders cannot resolve.
func IsBlockAndLot(address string) bool {
	s := fold(address)
	for _, re := range blockAndLot {
		if re.MatchString(s) {
			return true
		}
	}

	return false
}
