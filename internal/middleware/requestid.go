package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the canonical HTTP header used to propagate the request identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key under which the request ID string is stored so
	// that handlers and other middleware can retrieve it without reading the response header.
	RequestIDKey = "request_id"

	// Inbound IDs longer than this are discarded and replaced. Audit and action
	// records embed the request ID verbatim, so an unbounded caller-supplied
	// value would bloat every log document for the request.
	maxRequestIDLength = 128
)

// RequestIDMiddleware ensures every request carries a unique identifier
// propagated as an X-Request-ID header. An inbound header set by an upstream
// load balancer or gateway is reused as-is (unless oversized); otherwise a new
// UUID v4 is minted. The ID is stored in gin.Context under RequestIDKey and
// echoed back in the response header so clients can correlate their request
// with server-side log and audit entries.
//
// Register this middleware as early as possible so all downstream logging and
// audit recording includes the ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
