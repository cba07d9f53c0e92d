package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/models"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

// RequireRoles lets the request through only when the session identity has
// one of roles. It must run after Session.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok || !session.IsAuthenticated() {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "please sign in"))
			c.Abort()
			return
		}

		if _, ok := allowed[session.Identity.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
