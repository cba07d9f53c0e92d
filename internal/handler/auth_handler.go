package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/internal/navigation"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

type authService interface {
	Logout(ctx context.Context, session *models.Session, meta models.RequestMeta)
	RequestPasswordReset(ctx context.Context, req models.PasswordRecoveryRequest) error
	DemoReset(session *models.Session) error
	OpenResetLink(session *models.Session, token string) error
	ResetPassword(ctx context.Context, session *models.Session, req models.PasswordResetRequest, meta models.RequestMeta) error
}

// recoveryAck is returned whether or not the account exists.
const recoveryAck = "if the account exists, a recovery link has been sent to the email"

// AuthHandler wires session and password recovery endpoints to the auth service.
type AuthHandler struct {
	service authService
	router  *navigation.Router
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, router *navigation.Router) *AuthHandler {
	if router == nil {
		router = navigation.NewRouter()
	}
	return &AuthHandler{service: svc, router: router}
}

// Logout godoc
// @Summary Sign out
// @Description Clear the session identity and return to landing
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	h.service.Logout(c.Request.Context(), session, requestMeta(c))
	response.OK(c, h.router.Render(session))
}

// Me godoc
// @Summary Current identity
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if !session.IsAuthenticated() {
		respondError(c, appErrors.Clone(appErrors.ErrUnauthorized, "please sign in"))
		return
	}
	response.OK(c, session.Identity)
}

// RequestRecovery godoc
// @Summary Request a password recovery link
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.PasswordRecoveryRequest true "Account email"
// @Success 202 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/password-recovery [post]
func (h *AuthHandler) RequestRecovery(c *gin.Context) {
	var req models.PasswordRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid recovery payload"))
		return
	}
	if err := h.service.RequestPasswordReset(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"message": recoveryAck})
}

// DemoReset godoc
// @Summary Open the reset form with the demo token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /auth/password-recovery/demo [post]
func (h *AuthHandler) DemoReset(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.service.DemoReset(session); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, h.router.Render(session))
}

// OpenResetLink godoc
// @Summary Follow an emailed reset link
// @Tags Authentication
// @Produce json
// @Param token query string true "Reset token"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/password-reset [get]
func (h *AuthHandler) OpenResetLink(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var query dto.ResetLinkQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, bindError(err, "invalid reset link"))
		return
	}
	if err := h.service.OpenResetLink(session, query.Token); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, h.router.Render(session))
}

// ResetPassword godoc
// @Summary Choose a new password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.PasswordResetRequest true "New password"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /auth/password-reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid reset payload"))
		return
	}
	if err := h.service.ResetPassword(c.Request.Context(), session, req, requestMeta(c)); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, h.router.Render(session))
}
