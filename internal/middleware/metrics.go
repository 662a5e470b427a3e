// Package middleware provides the Gin middleware shared by every route of the
// badge relay: request IDs, Prometheus metrics, request logging, CORS and
// response security headers.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custom-icon-badges/custom-icon-badges/internal/telemetry"
)

// UnmatchedRouteLabel is the path label for requests served by the NoRoute
// handler. The generic badge proxy lives there, so raw URLs never become labels.
const UnmatchedRouteLabel = "<no-route>"

// MetricsMiddleware records http_requests_total and http_request_duration_seconds
// for every request, labelled by the matched route template.
//
// A panic in a later handler is recorded as a 500 and then re-raised for
// gin.Recovery(), which must be registered before this middleware.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		defer func() {
			status := c.Writer.Status()
			r := recover()
			if r != nil {
				status = http.StatusInternalServerError
			}

			path := c.FullPath()
			if path == "" {
				path = UnmatchedRouteLabel
			}
			method := c.Request.Method

			telemetry.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			if r != nil {
				panic(r)
			}
		}()

		c.Next()
	}
}
