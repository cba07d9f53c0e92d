package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestAverageRoundsHalfUp(t *testing.T) {
	cases := []struct {
		n1, n2, n3 float64
		want       int
	}{
		{18, 16, 17, 17},
		{15, 17, 16, 16},
		{14, 15, 14, 14},
		{15, 15, 16, 15},
		{13, 14, 15, 14},
		{13, 14, 16, 14},
		{13, 15, 16, 15},
		{0, 0, 0, 0},
		{20, 20, 19, 20},
		{10, 10, 11, 10},
		{10, 11, 11, 11},
	}
	for _, tc := range cases {
		got := Average(f(tc.n1), f(tc.n2), f(tc.n3))
		require.NotNil(t, got)
		assert.Equalf(t, tc.want, *got, "average(%v, %v, %v)", tc.n1, tc.n2, tc.n3)
	}
}

func TestAverageUndefinedWhileNotesMissing(t *testing.T) {
	assert.Nil(t, Average(f(15), nil, f(16)))
	assert.Nil(t, Average(nil, nil, nil))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 15, RoundHalfUp(14.5))
	assert.Equal(t, 14, RoundHalfUp(14.49))
	assert.Equal(t, 0, RoundHalfUp(0.3))
}

func TestParseNote(t *testing.T) {
	n, err := ParseNote("  ")
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = ParseNote(" 17.5 ")
	require.NoError(t, err)
	assert.Equal(t, 17.5, *n)

	for _, raw := range []string{"abc", "1e400", "NaN", "Inf", "12,5"} {
		_, err = ParseNote(raw)
		assert.ErrorIsf(t, err, ErrNoteNotNumeric, "raw %q", raw)
	}
}

func TestNoteDraftAverage(t *testing.T) {
	d := NoteDraft{"18", "16", "17"}
	require.NotNil(t, d.Average())
	assert.Equal(t, 17, *d.Average())

	d = NoteDraft{"18", "", "17"}
	assert.Nil(t, d.Average())

	d = NoteDraft{"18", "x", "17"}
	assert.Nil(t, d.Average())

	// Out-of-range values still average while drafting.
	d = NoteDraft{"25", "20", "20"}
	require.NotNil(t, d.Average())
	assert.Equal(t, 22, *d.Average())
}

func TestNoteDraftSet(t *testing.T) {
	var d NoteDraft
	require.NoError(t, d.Set(2, "14"))
	assert.Equal(t, "14", d[1])
	assert.ErrorIs(t, d.Set(0, "1"), ErrInvalidSlot)
	assert.ErrorIs(t, d.Set(4, "1"), ErrInvalidSlot)
}

func TestNoteDraftParse(t *testing.T) {
	notes, err := NoteDraft{"", "20", "0"}.Parse()
	require.NoError(t, err)
	assert.Nil(t, notes[0])
	assert.Equal(t, 20.0, *notes[1])
	assert.Equal(t, 0.0, *notes[2])

	_, err = NoteDraft{"10", "21", ""}.Parse()
	assert.ErrorIs(t, err, ErrNoteOutOfRange)
	assert.Contains(t, err.Error(), "note 2")

	_, err = NoteDraft{"-1", "", ""}.Parse()
	assert.ErrorIs(t, err, ErrNoteOutOfRange)

	_, err = NoteDraft{"", "", "abc"}.Parse()
	assert.ErrorIs(t, err, ErrNoteNotNumeric)
	assert.Contains(t, err.Error(), "note 3")
}

func TestDraftFromNotes(t *testing.T) {
	d := DraftFromNotes(f(15), nil, f(12.5))
	assert.Equal(t, NoteDraft{"15", "", "12.5"}, d)
}
