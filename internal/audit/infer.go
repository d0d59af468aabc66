package audit

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// routePrefixes are path segments that carry no resource information.
var routePrefixes = map[string]bool{
	"api":   true,
	"v1":    true,
	"admin": true,
}

// actionVerbs maps special trailing path segments to the action they name.
// These routes act on a resource without the method alone describing them.
var actionVerbs = map[string]bool{
	"login":        true,
	"register":     true,
	"verify-email": true,
	"lock":         true,
	"unlock":       true,
	"role":         true,
	"export":       true,
	"stats":        true,
	"failed":       true,
}

// InferActionType maps an HTTP method to the coarse action category stored
// on every entry.
func InferActionType(method string) string {
	switch method {
	case "GET":
		return "read"
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return "unknown"
	}
}

// InferResource extracts the resource name and, when the trailing segment is
// an identifier, the resource ID from a request path. Routing prefixes and
// action verbs are skipped, so /api/v1/admin/users/42/lock yields ("users",
// "42").
func InferResource(path string) (resource, resourceID string) {
	segments := splitPath(path)

	for _, seg := range segments {
		if routePrefixes[seg] {
			continue
		}
		if resource == "" && !isIdentifier(seg) && !actionVerbs[seg] {
			resource = seg
			continue
		}
		if isIdentifier(seg) {
			resourceID = seg
		}
	}

	if resource == "" {
		resource = "system"
	}
	if resourceID == "" {
		resourceID = "unknown"
	}
	return resource, resourceID
}

// InferAction derives the entry's action name from the method and path. A
// trailing action verb wins ("lock_users"); otherwise the method category is
// combined with the resource ("update_users").
func InferAction(method, path string) string {
	resource, _ := InferResource(path)

	segments := splitPath(path)
	for i := len(segments) - 1; i >= 0; i-- {
		if actionVerbs[segments[i]] {
			verb := strings.ReplaceAll(segments[i], "-", "_")
			// Auth routes are named by their verb alone: login, register.
			if resource == "auth" {
				return verb
			}
			return verb + "_" + resource
		}
	}

	return InferActionType(method) + "_" + resource
}

func splitPath(path string) []string {
	raw := strings.Split(strings.Trim(path, "/"), "/")
	segments := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// isIdentifier reports whether a path segment is a UUID or a numeric ID.
func isIdentifier(segment string) bool {
	if _, err := uuid.Parse(segment); err == nil {
		return true
	}
	if _, err := strconv.ParseInt(segment, 10, 64); err == nil {
		return true
	}
	return false
}
