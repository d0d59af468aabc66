package audit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RedactionMarker replaces the value of any sensitive payload field.
const RedactionMarker = "[REDACTED]"

// DefaultRedactedFields are the key substrings treated as sensitive when the
// configuration does not override them.
var DefaultRedactedFields = []string{"password", "token", "secret", "key"}

// DefaultResponseSizeCap is the maximum serialized response length stored in
// an entry.
const DefaultResponseSizeCap = 1000

// Sanitizer scrubs request and response payloads before they are persisted.
type Sanitizer struct {
	redacted []string
	sizeCap  int
}

// NewSanitizer builds a sanitizer. Empty arguments fall back to the defaults.
func NewSanitizer(redactedFields []string, sizeCap int) *Sanitizer {
	fields := redactedFields
	if len(fields) == 0 {
		fields = DefaultRedactedFields
	}
	lowered := make([]string, len(fields))
	for i, f := range fields {
		lowered[i] = strings.ToLower(f)
	}
	if sizeCap <= 0 {
		sizeCap = DefaultResponseSizeCap
	}
	return &Sanitizer{redacted: lowered, sizeCap: sizeCap}
}

// sensitive reports whether a payload key names a sensitive field. Matching
// is a case-insensitive substring test so "currentPassword" and "api_key"
// are caught without enumerating every variant.
func (s *Sanitizer) sensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, field := range s.redacted {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

// SanitizeMap returns a copy of data with sensitive values replaced by the
// redaction marker. Nested maps and slices are scrubbed recursively; the
// input is never modified.
func (s *Sanitizer) SanitizeMap(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	out := make(map[string]interface{}, len(data))
	for key, value := range data {
		if s.sensitive(key) {
			out[key] = RedactionMarker
			continue
		}
		out[key] = s.sanitizeValue(value)
	}
	return out
}

func (s *Sanitizer) sanitizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return s.SanitizeMap(v)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = s.sanitizeValue(item)
		}
		return out
	default:
		return value
	}
}

// SanitizeBody parses a JSON request or response body and scrubs it. A body
// that is empty or not a JSON object yields nil; audit entries only carry
// structured payloads.
func (s *Sanitizer) SanitizeBody(body []byte) map[string]interface{} {
	if len(body) == 0 {
		return nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil
	}
	return s.SanitizeMap(data)
}

// CapResponse enforces the response size limit on an already-sanitized
// payload. An oversized payload is replaced with a size marker so one large
// export cannot bloat the log collection.
func (s *Sanitizer) CapResponse(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}
	serialized, err := json.Marshal(data)
	if err != nil {
		return nil
	}
	if len(serialized) <= s.sizeCap {
		return data
	}
	return map[string]interface{}{
		"message": "Response data too large for logging",
		"size":    len(serialized),
	}
}

// SanitizeError trims an error message for storage.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 500 {
		msg = fmt.Sprintf("%s... (truncated)", msg[:500])
	}
	return msg
}
