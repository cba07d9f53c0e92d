package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PlanStatus is a stage in the study plan review workflow.
type PlanStatus string

const (
	PlanStatusDraftAI   PlanStatus = "Draft-AI"
	PlanStatusInReview  PlanStatus = "In-Review"
	PlanStatusApproved  PlanStatus = "Approved"
	PlanStatusPublished PlanStatus = "Published"
)

// InitialPlanVersion is assigned to freshly generated plans.
const InitialPlanVersion = "1.0"

var (
	// ErrPlanTransition is returned when an action does not apply to the plan's status.
	ErrPlanTransition = errors.New("plan transition not allowed")
	// ErrFeedbackRequired is returned when a revision is requested without feedback.
	ErrFeedbackRequired = errors.New("revision feedback is required")
	// ErrInvalidVersion is returned for versions that are not decimal numbers.
	ErrInvalidVersion = errors.New("invalid plan version")
)

// PlanSession is a single class session inside a unit.
type PlanSession struct {
	Name       string   `json:"name"`
	Duration   int      `json:"duration"`
	Activities []string `json:"activities"`
}

// PlanUnit groups sessions under a learning unit.
type PlanUnit struct {
	Name      string        `json:"name"`
	Duration  int           `json:"duration"`
	Sessions  []PlanSession `json:"sessions"`
	Resources []string      `json:"resources"`
}

// PlanUnits is stored as a JSONB column.
type PlanUnits []PlanUnit

// Value implements driver.Valuer.
func (u PlanUnits) Value() (driver.Value, error) {
	return jsonValue(u)
}

// Scan implements sql.Scanner.
func (u *PlanUnits) Scan(src interface{}) error {
	return jsonScan(src, u)
}

// PlanWeakness is a competency targeted by a personalised plan.
type PlanWeakness struct {
	Course     string `json:"course"`
	Competency string `json:"competency"`
	Grade      string `json:"grade"`
}

// PlanWeaknesses is stored as a JSONB column.
type PlanWeaknesses []PlanWeakness

// Value implements driver.Valuer.
func (w PlanWeaknesses) Value() (driver.Value, error) {
	return jsonValue(w)
}

// Scan implements sql.Scanner.
func (w *PlanWeaknesses) Scan(src interface{}) error {
	return jsonScan(src, w)
}

// StudyPlan is an AI-drafted curriculum plan moving through human review.
type StudyPlan struct {
	ID               string         `db:"id" json:"id"`
	ParentID         *string        `db:"parent_id" json:"parent_id,omitempty"`
	Name             string         `db:"name" json:"name"`
	Course           string         `db:"course" json:"course"`
	Grade            string         `db:"grade" json:"grade"`
	Version          string         `db:"version" json:"version"`
	GenerationDate   time.Time      `db:"generation_date" json:"generation_date"`
	Accuracy         float64        `db:"accuracy" json:"accuracy"`
	Status           PlanStatus     `db:"status" json:"status"`
	Objectives       pq.StringArray `db:"objectives" json:"objectives"`
	Competencies     pq.StringArray `db:"competencies" json:"competencies"`
	Units            PlanUnits      `db:"units" json:"units"`
	EstimatedHours   int            `db:"estimated_hours" json:"estimated_hours"`
	Materials        pq.StringArray `db:"materials" json:"materials"`
	StudentID        *string        `db:"student_id" json:"student_id,omitempty"`
	Weaknesses       PlanWeaknesses `db:"weaknesses" json:"weaknesses,omitempty"`
	Narrative        string         `db:"narrative" json:"narrative"`
	RevisionFeedback *string        `db:"revision_feedback" json:"revision_feedback,omitempty"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// StudyPlanFilter narrows plan listings.
type StudyPlanFilter struct {
	Status    PlanStatus
	StudentID string
}

// SubmitForReview moves a Draft-AI plan to In-Review.
func (p *StudyPlan) SubmitForReview() error {
	return p.advance(PlanStatusDraftAI, PlanStatusInReview, "submit for review")
}

// Approve moves an In-Review plan to Approved.
func (p *StudyPlan) Approve() error {
	return p.advance(PlanStatusInReview, PlanStatusApproved, "approve")
}

// Publish moves an Approved plan to Published.
func (p *StudyPlan) Publish() error {
	return p.advance(PlanStatusApproved, PlanStatusPublished, "publish")
}

func (p *StudyPlan) advance(from, to PlanStatus, action string) error {
	if p.Status != from {
		return fmt.Errorf("%w: cannot %s a plan in status %s", ErrPlanTransition, action, p.Status)
	}
	p.Status = to
	return nil
}

// Revise returns a new Draft-AI plan derived from an In-Review plan with the
// version bumped by 0.1. p itself is left untouched.
func (p StudyPlan) Revise(id, feedback string, now time.Time) (*StudyPlan, error) {
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, ErrFeedbackRequired
	}
	if p.Status != PlanStatusInReview {
		return nil, fmt.Errorf("%w: cannot request a revision of a plan in status %s", ErrPlanTransition, p.Status)
	}
	version, err := NextVersion(p.Version)
	if err != nil {
		return nil, err
	}

	parentID := p.ID
	next := p
	next.ID = id
	next.ParentID = &parentID
	next.Version = version
	next.Status = PlanStatusDraftAI
	next.GenerationDate = PlanDate(now)
	next.RevisionFeedback = &feedback
	next.Objectives = append(pq.StringArray(nil), p.Objectives...)
	next.Competencies = append(pq.StringArray(nil), p.Competencies...)
	next.Materials = append(pq.StringArray(nil), p.Materials...)
	next.Units = append(PlanUnits(nil), p.Units...)
	next.Weaknesses = append(PlanWeaknesses(nil), p.Weaknesses...)
	next.CreatedAt = now
	next.UpdatedAt = now
	return &next, nil
}

// NextVersion adds 0.1 to a decimal version string and formats it with one decimal.
func NextVersion(v string) (string, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	// Work in tenths so repeated bumps do not accumulate float error.
	tenths := RoundHalfUp(f*10) + 1
	return fmt.Sprintf("%d.%d", tenths/10, tenths%10), nil
}

// PlanDate truncates t to the UTC calendar day.
func PlanDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonScan(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}
