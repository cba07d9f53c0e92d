package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

type landingService interface {
	Lookup(ctx context.Context, session *models.Session, nationalID string) (*models.Student, error)
	Login(ctx context.Context, session *models.Session, req models.LoginRequest, meta models.RequestMeta) (*models.Identity, error)
}

// LandingHandler serves the national ID lookup and the credential login.
type LandingHandler struct {
	service landingService
}

// NewLandingHandler constructs a LandingHandler.
func NewLandingHandler(svc landingService) *LandingHandler {
	return &LandingHandler{service: svc}
}

// Lookup godoc
// @Summary Look up a student by national ID
// @Description At most five lookups per session within the rate window
// @Tags Landing
// @Accept json
// @Produce json
// @Param payload body dto.LookupRequest true "National ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /lookup [post]
func (h *LandingHandler) Lookup(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var req dto.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid lookup payload"))
		return
	}

	student, err := h.service.Lookup(c.Request.Context(), session, req.NationalID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.LookupResponse{View: session.View, Student: student})
}

// Login godoc
// @Summary Sign in with an institutional email
// @Tags Landing
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/login [post]
func (h *LandingHandler) Login(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid login payload"))
		return
	}

	identity, err := h.service.Login(c.Request.Context(), session, req, requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, dto.LoginResponse{View: session.View, Identity: identity})
}
