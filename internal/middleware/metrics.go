package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/kas-kelas-api/internal/service"
)

const unmatchedRoute = "unmatched"

// probeRoutes are polled by orchestrators and Prometheus itself and stay out of the request metrics.
var probeRoutes = map[string]struct{}{
	"/health":  {},
	"/ready":   {},
	"/metrics": {},
}

// Metrics records request count and latency per route template. Requests that match no
// route share a single label so random paths do not create new series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, skip := probeRoutes[route]; skip {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
