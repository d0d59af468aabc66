package audit_test

import (
	"testing"

	"github.com/admin-console/admin-console/internal/audit"
)

func TestInferActionType(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"GET", "read"},
		{"POST", "create"},
		{"PUT", "update"},
		{"PATCH", "update"},
		{"DELETE", "delete"},
		// Only the five mapped methods classify; everything else is unknown.
		{"HEAD", "unknown"},
		{"OPTIONS", "unknown"},
		{"TRACE", "unknown"},
		{"CONNECT", "unknown"},
	}

	for _, tt := range tests {
		if got := audit.InferActionType(tt.method); got != tt.want {
			t.Errorf("InferActionType(%s) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestInferResource(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		wantResource string
		wantID       string
	}{
		{"collection", "/api/v1/admin/users", "users", "unknown"},
		{"numeric id", "/api/v1/admin/users/42", "users", "42"},
		{"uuid id", "/api/v1/admin/users/6ba7b810-9dad-11d1-80b4-00c04fd430c8", "users", "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"id with action verb", "/api/v1/admin/users/42/lock", "users", "42"},
		{"audit logs", "/api/v1/admin/audit-logs", "audit-logs", "unknown"},
		{"auth route", "/api/v1/auth/login", "auth", "unknown"},
		{"bare path", "/", "system", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resource, id := audit.InferResource(tt.path)
			if resource != tt.wantResource || id != tt.wantID {
				t.Errorf("InferResource(%s) = (%q, %q), want (%q, %q)",
					tt.path, resource, id, tt.wantResource, tt.wantID)
			}
		})
	}
}

func TestInferAction(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		want   string
	}{
		{"list", "GET", "/api/v1/admin/users", "read_users"},
		{"create", "POST", "/api/v1/admin/users", "create_users"},
		{"update", "PUT", "/api/v1/admin/users/42", "update_users"},
		{"lock verb wins", "POST", "/api/v1/admin/users/42/lock", "lock_users"},
		{"unlock verb wins", "POST", "/api/v1/admin/users/42/unlock", "unlock_users"},
		{"role change", "PATCH", "/api/v1/admin/users/42/role", "role_users"},
		{"export", "GET", "/api/v1/admin/users/export", "export_users"},
		{"login", "POST", "/api/v1/auth/login", "login"},
		{"register", "POST", "/api/v1/auth/register", "register"},
		{"verify email", "POST", "/api/v1/auth/verify-email", "verify_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := audit.InferAction(tt.method, tt.path); got != tt.want {
				t.Errorf("InferAction(%s, %s) = %q, want %q", tt.method, tt.path, got, tt.want)
			}
		})
	}
}
