package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/middleware"
	"github.com/noah-isme/swiaape-api/internal/models"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

// currentSession returns the request session, writing an error response when
// the session middleware did not run.
func currentSession(c *gin.Context) (*models.Session, bool) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "session unavailable"))
		return nil, false
	}
	return session, true
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func actorID(session *models.Session) string {
	if session.IsAuthenticated() {
		return session.Identity.ID
	}
	return ""
}

// respondError writes err and keeps a stale session copy from overwriting
// the newer stored one.
func respondError(c *gin.Context, err error) {
	if appErrors.HasCode(err, appErrors.ErrStaleResponse.Code) {
		middleware.DiscardSession(c)
	}
	response.Error(c, err)
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}
