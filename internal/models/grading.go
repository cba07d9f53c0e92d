package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Notes are on the 0-20 vigesimal scale.
const (
	MinNote = 0
	MaxNote = 20
	// NoteSlots is the number of notes recorded per student and course.
	NoteSlots = 3
)

var (
	// ErrNoteNotNumeric is returned for drafts that do not parse as a finite number.
	ErrNoteNotNumeric = errors.New("note is not a number")
	// ErrNoteOutOfRange is returned for notes outside [MinNote, MaxNote].
	ErrNoteOutOfRange = errors.New("note out of range")
	// ErrInvalidSlot is returned for slot indexes outside 1..NoteSlots.
	ErrInvalidSlot = errors.New("invalid note slot")
)

// RoundHalfUp rounds to the nearest integer with .5 going up.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// Average is the rounded mean of the three notes, or nil while any is missing.
func Average(n1, n2, n3 *float64) *int {
	if n1 == nil || n2 == nil || n3 == nil {
		return nil
	}
	avg := RoundHalfUp((*n1 + *n2 + *n3) / 3)
	return &avg
}

// ParseNote converts a draft string into a note. Blank drafts are nil.
func ParseNote(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %q", ErrNoteNotNumeric, raw)
	}
	return &v, nil
}

// CheckNoteRange fails when a defined note falls outside the scale.
func CheckNoteRange(note *float64) error {
	if note == nil {
		return nil
	}
	if *note < MinNote || *note > MaxNote {
		return fmt.Errorf("%w: %g not in [%d, %d]", ErrNoteOutOfRange, *note, MinNote, MaxNote)
	}
	return nil
}

// NoteDraft holds the raw, uncommitted text of a student's three notes.
type NoteDraft [NoteSlots]string

// Set stores raw text in the 1-based slot.
func (d *NoteDraft) Set(slot int, raw string) error {
	if slot < 1 || slot > NoteSlots {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	d[slot-1] = raw
	return nil
}

// Average is the live average of the draft. Any blank or unparseable slot yields nil.
func (d NoteDraft) Average() *int {
	var notes [NoteSlots]*float64
	for i, raw := range d {
		n, err := ParseNote(raw)
		if err != nil {
			return nil
		}
		notes[i] = n
	}
	return Average(notes[0], notes[1], notes[2])
}

// Parse converts every slot, reporting the first invalid one.
func (d NoteDraft) Parse() ([NoteSlots]*float64, error) {
	var notes [NoteSlots]*float64
	for i, raw := range d {
		n, err := ParseNote(raw)
		if err != nil {
			return notes, fmt.Errorf("note %d: %w", i+1, err)
		}
		if err := CheckNoteRange(n); err != nil {
			return notes, fmt.Errorf("note %d: %w", i+1, err)
		}
		notes[i] = n
	}
	return notes, nil
}

// DraftFromNotes seeds a draft from committed notes.
func DraftFromNotes(n1, n2, n3 *float64) NoteDraft {
	var d NoteDraft
	for i, n := range []*float64{n1, n2, n3} {
		if n != nil {
			d[i] = strconv.FormatFloat(*n, 'f', -1, 64)
		}
	}
	return d
}

// GradeDraft is an open grade editing session for one course.
type GradeDraft struct {
	CourseID string               `json:"course_id"`
	Rows     map[string]NoteDraft `json:"rows"`
}

// GradeUpdate is a committed note triple for one enrollment.
type GradeUpdate struct {
	CourseID  string   `db:"course_id"`
	StudentID string   `db:"student_id"`
	Note1     *float64 `db:"note1"`
	Note2     *float64 `db:"note2"`
	Note3     *float64 `db:"note3"`
}
