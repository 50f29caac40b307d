// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeText folds case and diacritics and reduces punctuation to single
// spaces, for fuzzy comparison of place names.
func NormalizeText(s string) string {
	return strings.TrimSpace(nonAlnum.ReplaceAllString(fold(s), " "))
}

// federative units, keyed by their two-letter code
var states = map[string]string{
	"ac": "acre",
	"al": "alagoas",
	"ap": "amapa",
	"am": "amazonas",
	"ba": "bahia",
	"ce": "ceara",
	"df": "distrito federal",
	"es": "espirito santo",
	"go": "goias",
	"ma": "maranhao",
	"mt": "mato grosso",
	"ms": "mato grosso do sul",
	"mg": "minas gerais",
	"pa": "para",
	"pb": "paraiba",
	"pr": "parana",
	"pe": "pernambuco",
	"pi": "piaui",
	"rj": "rio de janeiro",
	"rn": "rio grande do norte",
	"rs": "rio grande do sul",
	"ro": "rondonia",
	"rr": "roraima",
	"sc": "santa catarina",
	"sp": "sao paulo",
	"se": "sergipe",
	"to": "tocantins",
}

// NormalizeState returns the normalized full name of a Brazilian state given
// either its name or its two-letter code ("SP", "São Paulo").
func NormalizeState(s string) string {
	n := NormalizeText(s)
	if full, ok := states[n]; ok {
		return full
	}

	return n
}

// HouseNumber returns the house number part of the address signature, or ""
// when the signature carries none.
func HouseNumber(addr string) string {
	sig := ExtractNormalizedStreetAndNumber(addr)

	last := sig
	if i := strings.LastIndexByte(sig, ' '); i >= 0 {
		last = sig[i+1:]
	}

	if last == "" || strings.Trim(last, "0123456789") != "" {
		return ""
	}

	return last
}
