package dto

// GeneratePlanRequest asks the AI for a plan from a free prompt or for a student.
type GeneratePlanRequest struct {
	Prompt    string `json:"prompt" validate:"omitempty,max=2000"`
	StudentID string `json:"student_id" validate:"omitempty,max=64"`
}

// RevisionRequest carries reviewer feedback for a plan revision.
type RevisionRequest struct {
	Feedback string `json:"feedback"`
}

// PlanListQuery filters the plan listing.
type PlanListQuery struct {
	Status    string `form:"status"`
	StudentID string `form:"student_id"`
}
