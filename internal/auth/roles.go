// Package auth - roles.go defines the staff role enum and the permission
// strings derived from roles, with helpers for role validation and permission
// checking used by the authorization middleware.
package auth

import (
	"errors"
	"fmt"
)

// Role is the coarse access label carried on every staff account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleSupport Role = "support"
)

// Permission represents a fine-grained capability string derived from a role.
type Permission string

const (
	// User management permissions
	PermissionUsersRead   Permission = "users:read"
	PermissionUsersWrite  Permission = "users:write"
	PermissionUsersDelete Permission = "users:delete"

	// Audit log permissions
	PermissionAuditRead Permission = "audit:read"

	// Reporting permissions
	PermissionReportsRead Permission = "reports:read"
)

// AllRoles returns every recognized role.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleSupport}
}

// ValidRole reports whether s is one of the recognized role values.
func ValidRole(s string) bool {
	for _, r := range AllRoles() {
		if s == string(r) {
			return true
		}
	}
	return false
}

// ParseRole converts a string to a Role, rejecting anything outside the enum.
func ParseRole(s string) (Role, error) {
	if !ValidRole(s) {
		return "", fmt.Errorf("invalid role: %s", s)
	}
	return Role(s), nil
}

// AllPermissions returns all valid permissions
func AllPermissions() []Permission {
	return []Permission{
		PermissionUsersRead,
		PermissionUsersWrite,
		PermissionUsersDelete,
		PermissionAuditRead,
		PermissionReportsRead,
	}
}

// ValidatePermissionString validates a single permission string
func ValidatePermissionString(perm string) error {
	for _, p := range AllPermissions() {
		if perm == string(p) {
			return nil
		}
	}
	return errors.New("invalid permission")
}

// DefaultRolePermissions is the fixed role→permission table seeded into the
// database by migration. The database copy is authoritative at runtime; this
// map exists for seeding checks and tests.
func DefaultRolePermissions() map[Role][]Permission {
	return map[Role][]Permission{
		RoleAdmin: {
			PermissionUsersRead,
			PermissionUsersWrite,
			PermissionUsersDelete,
			PermissionAuditRead,
			PermissionReportsRead,
		},
		RoleSupport: {
			PermissionUsersRead,
			PermissionAuditRead,
		},
	}
}

// HasRole checks if a caller's role is a member of the allowed set.
// An empty or unrecognized role never matches.
func HasRole(userRole string, allowed []Role) bool {
	if !ValidRole(userRole) {
		return false
	}
	for _, r := range allowed {
		if userRole == string(r) {
			return true
		}
	}
	return false
}

// HasPermission checks if a granted permission set satisfies a required
// permission. Write implies read within the users resource.
func HasPermission(granted []string, required Permission) bool {
	requiredStr := string(required)

	for _, p := range granted {
		if p == requiredStr {
			return true
		}
		if required == PermissionUsersRead && p == string(PermissionUsersWrite) {
			return true
		}
	}

	return false
}

// HasAnyPermission checks if at least one required permission is granted.
func HasAnyPermission(granted []string, required []Permission) bool {
	for _, r := range required {
		if HasPermission(granted, r) {
			return true
		}
	}
	return false
}
