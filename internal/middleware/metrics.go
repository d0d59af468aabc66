// Package middleware provides Gin HTTP middleware components for the admin console.
// All middleware in this package is registered in internal/api/router.go before any
// route handlers so that every request is covered regardless of handler.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/telemetry"
)

// MetricsMiddleware records http_requests_total and http_request_duration_seconds
// for every request. The path label comes from c.FullPath(), the matched route
// template (e.g. /api/v1/admin/users/:id/lock), never the raw URL, so
// user-supplied path segments cannot explode label cardinality. Requests that
// match no route are labelled "<no-route>".
//
// Register after gin.Recovery() so statuses written by error handlers are the
// ones observed.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "<no-route>"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		telemetry.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
