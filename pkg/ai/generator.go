package ai

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when no generator backend is configured or reachable.
var ErrUnavailable = errors.New("ai generator unavailable")

// PlanRequest describes what the generator should plan for. Prompt is used
// for free-form requests, StudentName and Weaknesses for a personalised plan.
type PlanRequest struct {
	Prompt      string
	StudentName string
	Course      string
	Grade       string
	Weaknesses  []Weakness
}

// Weakness is a competency where the student scored below the expected level.
type Weakness struct {
	Competency string
	Grade      string
}

// SessionDraft is a single class session inside a unit.
type SessionDraft struct {
	Name       string   `json:"name"`
	Duration   int      `json:"duration"`
	Activities []string `json:"activities"`
}

// UnitDraft groups sessions under a learning unit.
type UnitDraft struct {
	Name      string         `json:"name"`
	Duration  int            `json:"duration"`
	Sessions  []SessionDraft `json:"sessions"`
	Resources []string       `json:"resources"`
}

// PlanDraft is the structured plan returned by a generator.
type PlanDraft struct {
	Name           string      `json:"name"`
	Course         string      `json:"course"`
	Grade          string      `json:"grade"`
	Objectives     []string    `json:"objectives"`
	Competencies   []string    `json:"competencies"`
	Units          []UnitDraft `json:"units"`
	EstimatedHours int         `json:"estimated_hours"`
	Materials      []string    `json:"materials"`
	Accuracy       float64     `json:"accuracy"`
	Narrative      string      `json:"narrative"`
}

// Generator produces study plans and conversational replies.
type Generator interface {
	GeneratePlan(ctx context.Context, req PlanRequest) (PlanDraft, error)
	Reply(ctx context.Context, message string) (string, error)
}

// Observer receives the outcome of every backend call.
type Observer func(operation string, duration time.Duration, err error)

// Disabled is the Generator used when no backend is configured.
type Disabled struct{}

// GeneratePlan always fails with ErrUnavailable.
func (Disabled) GeneratePlan(context.Context, PlanRequest) (PlanDraft, error) {
	return PlanDraft{}, ErrUnavailable
}

// Reply always fails with ErrUnavailable.
func (Disabled) Reply(context.Context, string) (string, error) {
	return "", ErrUnavailable
}
