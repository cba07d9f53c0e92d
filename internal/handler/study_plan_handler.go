package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

type studyPlanService interface {
	Generate(ctx context.Context, req dto.GeneratePlanRequest) (*models.StudyPlan, error)
	SubmitForReview(ctx context.Context, id string) (*models.StudyPlan, error)
	Approve(ctx context.Context, id string) (*models.StudyPlan, error)
	Publish(ctx context.Context, id string) (*models.StudyPlan, error)
	RequestRevision(ctx context.Context, id, feedback string) (*models.StudyPlan, error)
	List(ctx context.Context, query dto.PlanListQuery) ([]models.StudyPlan, error)
	Get(ctx context.Context, id string) (*models.StudyPlan, error)
}

// StudyPlanHandler serves the study plan review workflow.
type StudyPlanHandler struct {
	service studyPlanService
}

// NewStudyPlanHandler constructs a StudyPlanHandler.
func NewStudyPlanHandler(svc studyPlanService) *StudyPlanHandler {
	return &StudyPlanHandler{service: svc}
}

// List godoc
// @Summary List study plans
// @Tags StudyPlans
// @Produce json
// @Param status query string false "Draft-AI, In-Review, Approved, Published or all"
// @Param student_id query string false "Student ID"
// @Success 200 {object} response.Envelope
// @Router /plans [get]
func (h *StudyPlanHandler) List(c *gin.Context) {
	var query dto.PlanListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err, "invalid plan filter"))
		return
	}
	plans, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, plans, map[string]interface{}{"total": len(plans)})
}

// Get godoc
// @Summary Get a study plan
// @Tags StudyPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /plans/{id} [get]
func (h *StudyPlanHandler) Get(c *gin.Context) {
	plan, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, plan)
}

// Generate godoc
// @Summary Generate a plan with the AI
// @Tags StudyPlans
// @Accept json
// @Produce json
// @Param payload body dto.GeneratePlanRequest true "Prompt or student"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /plans [post]
func (h *StudyPlanHandler) Generate(c *gin.Context) {
	var req dto.GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid plan request"))
		return
	}
	plan, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, plan)
}

// Submit godoc
// @Summary Send a Draft-AI plan to review
// @Tags StudyPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /plans/{id}/submit [post]
func (h *StudyPlanHandler) Submit(c *gin.Context) {
	h.transition(c, h.service.SubmitForReview)
}

// Approve godoc
// @Summary Approve an In-Review plan
// @Tags StudyPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /plans/{id}/approve [post]
func (h *StudyPlanHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Publish godoc
// @Summary Publish an Approved plan
// @Tags StudyPlans
// @Produce json
// @Param id path string true "Plan ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /plans/{id}/publish [post]
func (h *StudyPlanHandler) Publish(c *gin.Context) {
	h.transition(c, h.service.Publish)
}

// RequestRevision godoc
// @Summary Send an In-Review plan back with feedback
// @Description Creates a new Draft-AI plan; the reviewed plan is kept unchanged
// @Tags StudyPlans
// @Accept json
// @Produce json
// @Param id path string true "Plan ID"
// @Param payload body dto.RevisionRequest true "Feedback"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /plans/{id}/revisions [post]
func (h *StudyPlanHandler) RequestRevision(c *gin.Context) {
	var req dto.RevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid revision payload"))
		return
	}
	plan, err := h.service.RequestRevision(c.Request.Context(), c.Param("id"), req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, plan)
}

func (h *StudyPlanHandler) transition(c *gin.Context, apply func(context.Context, string) (*models.StudyPlan, error)) {
	plan, err := apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, plan)
}
