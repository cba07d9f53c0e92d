package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/navigation"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

// NavigationHandler exposes the view router.
type NavigationHandler struct {
	router *navigation.Router
}

// NewNavigationHandler constructs a NavigationHandler.
func NewNavigationHandler(router *navigation.Router) *NavigationHandler {
	if router == nil {
		router = navigation.NewRouter()
	}
	return &NavigationHandler{router: router}
}

// View godoc
// @Summary Current screen
// @Description Render the current view. A view whose guard fails falls back to landing.
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /view [get]
func (h *NavigationHandler) View(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	response.OK(c, h.router.Render(session))
}

// Back godoc
// @Summary Back to landing
// @Description Return to the landing view, dropping lookup and reset state
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /navigation/back [post]
func (h *NavigationHandler) Back(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	h.router.Back(session)
	response.OK(c, h.router.Render(session))
}

// ForgotPassword godoc
// @Summary Open password recovery
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /navigation/forgot-password [post]
func (h *NavigationHandler) ForgotPassword(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.router.ForgotPassword(session); err != nil {
		respondError(c, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "password recovery is only available from the start page"))
		return
	}
	response.OK(c, h.router.Render(session))
}

// Home godoc
// @Summary Back to the role's home view
// @Description Return a signed-in user to their own view without signing in again
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /navigation/home [post]
func (h *NavigationHandler) Home(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.router.Home(session); err != nil {
		if !session.IsAuthenticated() {
			respondError(c, appErrors.Clone(appErrors.ErrUnauthorized, "please sign in"))
			return
		}
		msg := "sign in again to return to your page"
		if errors.Is(err, navigation.ErrNoWebAccess) {
			msg = "this account has no web access"
		}
		respondError(c, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, msg))
		return
	}
	response.OK(c, h.router.Render(session))
}
