package models

import "time"

// Competency grade letters, from highest to lowest achievement.
const (
	GradeOutstanding = "AD"
	GradeAchieved    = "A"
	GradeInProgress  = "B"
	GradeBeginning   = "C"
)

// Student represents a learner registered in the institution.
type Student struct {
	ID          string       `db:"id" json:"id"`
	UserID      *string      `db:"user_id" json:"user_id,omitempty"`
	NationalID  string       `db:"national_id" json:"national_id"`
	FullName    string       `db:"full_name" json:"full_name"`
	Code        string       `db:"code" json:"code"`
	Grade       string       `db:"grade" json:"grade"`
	Section     string       `db:"section" json:"section"`
	Period      string       `db:"period" json:"period"`
	Performance *float64     `db:"performance" json:"performance,omitempty"`
	Evaluations []Evaluation `db:"-" json:"evaluations"`
}

// Evaluation is a competency result for a student in a course.
type Evaluation struct {
	CourseName     string     `db:"course_name" json:"course_name"`
	CompetencyName string     `db:"competency_name" json:"competency_name"`
	Grade          *string    `db:"grade" json:"grade,omitempty"`
	Period         string     `db:"period" json:"period"`
	EvaluatedAt    *time.Time `db:"evaluated_at" json:"evaluated_at,omitempty"`
}

// NeedsReinforcement reports whether the evaluation is graded B or C.
func (e Evaluation) NeedsReinforcement() bool {
	if e.Grade == nil {
		return false
	}
	return *e.Grade == GradeInProgress || *e.Grade == GradeBeginning
}

// Weaknesses returns the evaluations that need reinforcement, in order.
func (s Student) Weaknesses() []Evaluation {
	var out []Evaluation
	for _, e := range s.Evaluations {
		if e.NeedsReinforcement() {
			out = append(out, e)
		}
	}
	return out
}
