// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"slices"
	"strings"
)

// Diagnostic note tags. A note is a ";" separated list of tags, some of them
// carrying a value as tag=value.
const (
	NoteFromSource         = "from-source"
	NoteInvalidSource      = "invalid-source-coordinate"
	NoteLearned            = "learned"
	NoteBlockAndLot        = "block-and-lot"
	NoteGeocoderDisabled   = "geocoder-disabled"
	NoteGeocoderMatch      = "geocoder-match"
	NoteGeocoderAgrees     = "geocoder-agrees"
	NoteGeocoderDisagrees  = "geocoder-disagrees"
	NoteGeocoderNotFound   = "geocoder-not-found"
	NoteGeocoderAreaMiss   = "geocoder-area-mismatch"
	NoteGeocoderError      = "geocoder-error"
	NoteGeocodingSkipped   = "geocoding-skipped"
	NoteDistance           = "distance-m"
	NoteSourceCoordinate   = "source"
	NoteGeocodedCoordinate = "geocoded"
	NoteAdjustedManually   = "adjusted-manually"
)

const noteSeparator = ";"

type notes []string

func (n *notes) add(tag string) {
	*n = append(*n, tag)
}

func (n *notes) addValue(tag, value string) {
	*n = append(*n, tag+"="+value)
}

func (n notes) String() string {
	return strings.Join(n, noteSeparator)
}

// NoteTags splits a note into its tags.
func NoteTags(note string) []string {
	if note == "" {
		return nil
	}

	return strings.Split(note, noteSeparator)
}

// HasNote reports whether note carries tag, with or without a value.
func HasNote(note, tag string) bool {
	return slices.ContainsFunc(NoteTags(note), func(t string) bool {
		return t == tag || strings.HasPrefix(t, tag+"=")
	})
}

// NoteValue returns the value of the first tag=value entry for tag.
func NoteValue(note, tag string) (string, bool) {
	for _, t := range NoteTags(note) {
		if v, ok := strings.CutPrefix(t, tag+"="); ok {
			return v, true
		}
	}

	return "", false
}

// AppendNote adds tag to note unless it is already there.
func AppendNote(note, tag string) string {
	if HasNote(note, tag) {
		return note
	}

	if note == "" {
		return tag
	}

	return note + noteSeparator + tag
}
