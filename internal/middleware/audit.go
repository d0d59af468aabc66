// audit.go provides Gin middleware that records request-level audit entries
// for operations passing through the admin surface.
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/audit"
	"github.com/admin-console/admin-console/internal/config"
	"github.com/admin-console/admin-console/internal/logstore"
)

// bodyCaptureWriter tees the response body so the audit entry can carry it.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// AuditMiddleware records one audit entry per request. Write operations are
// always recorded, both successes and failures; reads only when configured.
// Recording is handed to the recorder and never blocks or fails the request.
func AuditMiddleware(recorder audit.Recorder, cfg *config.AuditConfig) gin.HandlerFunc {
	var redacted []string
	sizeCap := 0
	logReads := false
	if cfg != nil {
		redacted = cfg.RedactedFields
		sizeCap = cfg.ResponseSizeCap
		logReads = cfg.LogReadOperations
	}
	sanitizer := audit.NewSanitizer(redacted, sizeCap)

	return func(c *gin.Context) {
		if recorder == nil {
			c.Next()
			return
		}
		if c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		isRead := c.Request.Method == "GET" || c.Request.Method == "HEAD"
		if isRead && !logReads {
			c.Next()
			return
		}

		// Capture the request body and restore it for the handler.
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		start := time.Now()

		// Deferred so a panicking handler still produces its one entry; the
		// panic is re-raised for the outer recovery middleware afterwards.
		defer func() {
			duration := time.Since(start)
			panicked := recover()

			method := c.Request.Method
			path := c.Request.URL.Path
			status := writer.Status()
			if panicked != nil {
				status = http.StatusInternalServerError
			}
			success := status < 400

			resource, resourceID := audit.InferResource(path)
			// Route parameters beat path inference when present.
			if id := c.Param("id"); id != "" {
				resourceID = id
			}

			entry := &logstore.AuditLog{
				Action:      audit.InferAction(method, path),
				ActionType:  audit.InferActionType(method),
				Resource:    resource,
				ResourceID:  resourceID,
				UserRole:    GuestRole,
				IPAddress:   c.ClientIP(),
				UserAgent:   c.Request.UserAgent(),
				Method:      method,
				Endpoint:    path,
				Success:     success,
				RequestData: sanitizer.SanitizeBody(requestBody),
				DurationMS:  duration.Milliseconds(),
				Timestamp:   time.Now().UTC(),
			}

			if userID, ok := c.Get(ContextUserID); ok {
				entry.UserID, _ = userID.(string)
			}
			if role, ok := c.Get(ContextUserRole); ok {
				if roleStr, isStr := role.(string); isStr && roleStr != "" {
					entry.UserRole = roleStr
				}
			}

			switch {
			case panicked != nil:
				entry.ErrorMessage = "internal server error"
				entry.ErrorCode = strconv.Itoa(status)
			case success:
				entry.ResponseData = sanitizer.CapResponse(sanitizer.SanitizeBody(writer.body.Bytes()))
			default:
				// Failed responses carry the error fields instead of the body.
				entry.ErrorMessage, entry.ErrorCode = extractError(writer.body.Bytes(), status)
			}

			recorder.RecordAudit(entry)

			if panicked != nil {
				panic(panicked)
			}
		}()

		c.Next()
	}
}

// extractError pulls the error message and code out of a JSON error body.
// Bodies without the {error, code} shape still yield a code derived from the
// HTTP status so failed entries are never codeless.
func extractError(body []byte, status int) (message, code string) {
	var payload struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	_ = json.Unmarshal(body, &payload)
	if payload.Code == "" {
		payload.Code = strconv.Itoa(status)
	}
	return payload.Error, payload.Code
}
