package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/planbook/planbook-api/internal/service"
)

// Metrics records method, route and latency for every request. Requests
// that matched no registered route share a single "unmatched" label so
// scanners cannot inflate the path cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
