package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/service"
)

// unmatchedRoute labels requests that hit no route, so probing clients
// cannot grow the label set.
const unmatchedRoute = "unmatched"

// Metrics records latency and status of every request on metricsSvc.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
