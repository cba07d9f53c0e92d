package models

import "encoding/json"

// CourseStatus tells whether grades can still be edited.
type CourseStatus string

const (
	CourseStatusOpen   CourseStatus = "Open"
	CourseStatusClosed CourseStatus = "Closed"
)

// Course is a class taught by a teacher, with its roster.
type Course struct {
	ID       string       `db:"id" json:"id"`
	Name     string       `db:"name" json:"name"`
	Grade    string       `db:"grade" json:"grade"`
	Section  string       `db:"section" json:"section"`
	Status   CourseStatus `db:"status" json:"status"`
	Students []GradeRow   `db:"-" json:"students"`
}

// Editable reports whether grades for the course can be changed.
func (c Course) Editable() bool {
	return c.Status != CourseStatusClosed
}

// GradeRow is one student's committed notes in a course.
type GradeRow struct {
	CourseID   string   `db:"course_id" json:"-"`
	StudentID  string   `db:"student_id" json:"student_id"`
	FullName   string   `db:"full_name" json:"full_name"`
	NationalID string   `db:"national_id" json:"national_id"`
	Note1      *float64 `db:"note1" json:"note1"`
	Note2      *float64 `db:"note2" json:"note2"`
	Note3      *float64 `db:"note3" json:"note3"`
}

// Average is derived from the notes and never stored.
func (r GradeRow) Average() *int {
	return Average(r.Note1, r.Note2, r.Note3)
}

// MarshalJSON adds the derived average to the row.
func (r GradeRow) MarshalJSON() ([]byte, error) {
	type row GradeRow
	return json.Marshal(struct {
		row
		Average *int `json:"average"`
	}{row: row(r), Average: r.Average()})
}
