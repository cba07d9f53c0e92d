package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/pkg/logger"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

const (
	// ContextSessionKey is the gin context key storing the current *models.Session.
	ContextSessionKey = "currentSession"
	// SessionHeader carries the session id for clients that do not keep cookies.
	SessionHeader = "X-Session-ID"

	discardSessionKey = "discardSession"
)

type sessionStore interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
}

// SessionOptions configures the session cookie.
type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session loads the caller's session before the handler runs and saves it
// afterwards. The id is echoed in both the header and the cookie.
func Session(store sessionStore, opts SessionOptions, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		session, err := store.Load(c.Request.Context(), sessionID(c, opts.CookieName))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(logger.SessionIDKey, session.ID)
		c.Header(SessionHeader, session.ID)
		if opts.CookieName != "" {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(opts.CookieName, session.ID, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)
		}

		c.Next()

		if SessionDiscarded(c) {
			return
		}
		// The response is already written, a failed save can only be logged.
		if err := store.Save(context.WithoutCancel(c.Request.Context()), session); err != nil {
			log.Error("failed to save session", zap.String("session_id", session.ID), zap.Error(err))
		}
	}
}

// SessionFromContext returns the session loaded by Session.
func SessionFromContext(c *gin.Context) (*models.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*models.Session)
	return session, ok && session != nil
}

// DiscardSession stops Session from saving the request's copy of the session.
func DiscardSession(c *gin.Context) {
	c.Set(discardSessionKey, true)
}

// SessionDiscarded reports whether DiscardSession was called for the request.
func SessionDiscarded(c *gin.Context) bool {
	return c.GetBool(discardSessionKey)
}

func sessionID(c *gin.Context, cookieName string) string {
	if id := strings.TrimSpace(c.GetHeader(SessionHeader)); id != "" {
		return id
	}
	if cookieName == "" {
		return ""
	}
	id, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return id
}
