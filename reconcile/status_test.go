// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"valid", "Corrected", " PENDING ", "mismatch"} {
		_, err := ParseStatus(s)
		require.NoError(t, err, s)
	}

	_, err := ParseStatus("unknown")
	assert.Error(t, err)
}

func TestWorst(t *testing.T) {
	assert.Equal(t, StatusValid, Worst(StatusValid, StatusValid))
	assert.Equal(t, StatusCorrected, Worst(StatusValid, StatusCorrected))
	assert.Equal(t, StatusMismatch, Worst(StatusMismatch, StatusCorrected))
	assert.Equal(t, StatusPending, Worst(StatusPending, StatusMismatch))
	assert.Equal(t, StatusPending, Worst(StatusCorrected, StatusPending))

	assert.True(t, StatusMismatch.NeedsReview())
	assert.False(t, StatusCorrected.NeedsReview())
}

func TestNotes(t *testing.T) {
	note := "from-source;distance-m=12;geocoder-agrees"

	assert.Equal(t, []string{"from-source", "distance-m=12", "geocoder-agrees"}, NoteTags(note))
	assert.Nil(t, NoteTags(""))
	assert.True(t, HasNote(note, NoteDistance))
	assert.True(t, HasNote(note, NoteFromSource))
	assert.False(t, HasNote(note, NoteSourceCoordinate))

	v, ok := NoteValue(note, NoteDistance)
	assert.True(t, ok)
	assert.Equal(t, "12", v)

	assert.Equal(t, note+";adjusted-manually", AppendNote(note, NoteAdjustedManually))
	assert.Equal(t, note, AppendNote(note, NoteGeocoderAgrees))
	assert.Equal(t, "learned", AppendNote("", NoteLearned))
}
