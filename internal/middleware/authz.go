// Package middleware (authz.go) implements the role and permission gate.
//
// Permissions are resolved from the role at request time rather than being
// embedded in the JWT. When an account's role changes, the new permissions
// take effect on the next request without invalidating or reissuing the
// token. The gate fails closed: a missing identity, an unknown role, or a
// failed permission lookup all deny the request.

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/apperr"
	"github.com/admin-console/admin-console/internal/auth"
	"github.com/admin-console/admin-console/internal/db/repositories"
)

// RequireRoles allows the request only when the authenticated account holds
// one of the listed roles.
func RequireRoles(roles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(ContextUserRole)
		if !exists {
			abortWith(c, apperr.ErrPermissionDenied)
			return
		}

		userRole, ok := roleVal.(string)
		if !ok || !auth.HasRole(userRole, roles) {
			abortWith(c, apperr.ErrPermissionDenied)
			return
		}

		c.Next()
	}
}

// RequirePermission allows the request only when the account's role grants
// all of the listed permissions. The role's permissions come from the
// permission table so a policy change needs no token rotation.
func RequirePermission(permRepo *repositories.PermissionRepository, perms ...auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(ContextUserRole)
		if !exists {
			abortWith(c, apperr.ErrPermissionDenied)
			return
		}

		userRole, ok := roleVal.(string)
		if !ok {
			abortWith(c, apperr.ErrPermissionDenied)
			return
		}

		granted, err := permRepo.GetPermissionsForRole(c.Request.Context(), userRole)
		if err != nil {
			// Fail closed on a lookup error rather than guessing.
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve permissions",
				"code":  apperr.CodeDatabaseError,
			})
			return
		}

		for _, perm := range perms {
			if !auth.HasPermission(granted, perm) {
				abortWith(c, apperr.ErrPermissionDenied.WithMessage(
					"Missing required permission: %s", string(perm)))
				return
			}
		}

		c.Next()
	}
}

// RequireAnyPermission allows the request when the account's role grants at
// least one of the listed permissions.
func RequireAnyPermission(permRepo *repositories.PermissionRepository, perms ...auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleVal, exists := c.Get(ContextUserRole)
		if !exists {
			abortWith(c, apperr.ErrPermissionDenied)
			return
		}

		userRole, ok := roleVal.(string)
		if !ok {
			abortWith(c, apperr.ErrPermissionDenied)
			return
		}

		granted, err := permRepo.GetPermissionsForRole(c.Request.Context(), userRole)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to resolve permissions",
				"code":  apperr.CodeDatabaseError,
			})
			return
		}

		if !auth.HasAnyPermission(granted, perms) {
			abortWith(c, apperr.ErrPermissionDenied)
			return
		}

		c.Next()
	}
}
