package dto

import "github.com/noah-isme/swiaape-api/internal/models"

// RosterResponse lists the teacher's courses. Degraded is set when the
// roster could not be loaded and is shown empty.
type RosterResponse struct {
	Courses  []models.Course `json:"courses"`
	Degraded bool            `json:"degraded"`
}

// DraftRow is one student's notes as typed in the editor.
type DraftRow struct {
	StudentID  string    `json:"student_id"`
	FullName   string    `json:"full_name"`
	NationalID string    `json:"national_id"`
	Notes      [3]string `json:"notes"`
	Average    *int      `json:"average"`
}

// GradeDraftView is the open grade editor of a course.
type GradeDraftView struct {
	CourseID string     `json:"course_id"`
	Course   string     `json:"course"`
	Rows     []DraftRow `json:"rows"`
}

// SetNoteRequest carries the raw text typed into a note cell.
type SetNoteRequest struct {
	Value string `json:"value"`
}
