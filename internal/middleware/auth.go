// Package middleware provides Gin HTTP middleware for authentication,
// authorization, rate limiting, security headers, and audit logging.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RateLimit → RequestID → Metrics → Auth → Authz → Audit → Handler
//
// Security headers run first so they appear on all responses including errors.
// Rate limiting runs before auth to block brute-force attacks before any DB
// work. Auth populates the staff identity; the authorization gate reads from
// that context. Audit logging runs last in the chain so it observes the
// final authorization outcome for every request it records.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/apperr"
	"github.com/admin-console/admin-console/internal/auth"
	"github.com/admin-console/admin-console/internal/db/repositories"
)

// Context keys populated by the auth middleware and read by the
// authorization gate and the audit recorder.
const (
	ContextUser     = "user"
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextUserRole = "user_role"
)

// GuestRole is recorded on audit entries produced by unauthenticated
// requests.
const GuestRole = "guest"

func abortWith(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(err.Status, gin.H{
		"error": err.Message,
		"code":  err.Code,
	})
}

// AuthMiddleware validates the Bearer JWT and loads the staff account into
// the request context. Locked accounts are rejected even when their token is
// still valid.
func AuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWith(c, apperr.ErrUnauthorized.WithMessage("Missing authorization header"))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWith(c, apperr.ErrUnauthorized.WithMessage("Authorization header must start with 'Bearer '"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			abortWith(c, apperr.ErrUnauthorized.WithMessage("Authorization token is empty"))
			return
		}

		claims, err := auth.ValidateJWT(token)
		if err != nil {
			abortWith(c, apperr.ErrUnauthorized.WithMessage("Invalid or expired token"))
			return
		}

		user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to load user",
				"code":  apperr.CodeDatabaseError,
			})
			return
		}
		if user == nil {
			abortWith(c, apperr.ErrUnauthorized.WithMessage("User not found"))
			return
		}

		// A lock takes effect immediately, not at token expiry.
		if !user.IsActive {
			abortWith(c, apperr.ErrPermissionDenied.WithMessage("Account is locked"))
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Set(ContextUserRole, user.RoleType)

		c.Next()
	}
}

// OptionalAuthMiddleware populates the staff identity when a valid token is
// present but never rejects the request. Open routes use it so the audit
// recorder can attribute entries when a caller happens to be signed in.
func OptionalAuthMiddleware(userRepo *repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.Next()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			c.Next()
			return
		}

		if claims, err := auth.ValidateJWT(token); err == nil {
			user, err := userRepo.GetUserByID(c.Request.Context(), claims.UserID)
			if err == nil && user != nil && user.IsActive {
				c.Set(ContextUser, user)
				c.Set(ContextUserID, user.ID)
				c.Set(ContextUsername, user.Username)
				c.Set(ContextUserRole, user.RoleType)
			}
		}

		c.Next()
	}
}
