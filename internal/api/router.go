// Package api wires together all HTTP routes for the admin console backend.
//
// Route grouping philosophy:
//   - /health, /ready, /version and the auth endpoints (login, register,
//     verify-email) are deliberately open; everything the router leaves
//     ungated is listed there and nowhere else.
//   - /api/v1/admin/* always requires a valid bearer token plus a role or
//     permission gate chosen per route. Read endpoints gate on permissions
//     resolved through the role_permissions table, mutating endpoints gate
//     on the admin role directly.
//   - The audit middleware wraps both the auth and admin groups so every
//     guarded request, including failed logins, produces exactly one audit
//     document.
package api

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/admin-console/admin-console/internal/api/admin"
	"github.com/admin-console/admin-console/internal/audit"
	"github.com/admin-console/admin-console/internal/auth"
	"github.com/admin-console/admin-console/internal/config"
	"github.com/admin-console/admin-console/internal/db/repositories"
	"github.com/admin-console/admin-console/internal/logstore"
	"github.com/admin-console/admin-console/internal/mail"
	"github.com/admin-console/admin-console/internal/middleware"
)

// BackgroundServices holds resources with goroutines that must be stopped
// during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() after the HTTP server has drained.
type BackgroundServices struct {
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router. The log store, audit
// recorder and mailer are constructed by cmd/server and shared with the
// handlers here; their lifecycles stay with the caller.
func NewRouter(cfg *config.Config, db *sql.DB, logs *logstore.Store, recorder audit.Recorder, mailer mail.Sender) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	userRepo := repositories.NewUserRepository(db)

	// Wrap *sql.DB with sqlx for the permission table and stats aggregates
	sqlxDB := sqlx.NewDb(db, "postgres")
	permRepo := repositories.NewPermissionRepository(sqlxDB)

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(CORSMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))

	// Liveness, readiness, version
	router.GET("/health", healthCheckHandler(db))
	router.GET("/ready", readinessHandler(db, logs))
	router.GET("/version", versionHandler())

	// Handlers
	authHandlers := admin.NewAuthHandlers(cfg, db, recorder, mailer)
	userHandlers := admin.NewUserHandlers(cfg, db, recorder)
	logHandlers := admin.NewLogHandlers(logs)
	reportHandlers := admin.NewReportHandlers(logs)
	roleHandlers := admin.NewRoleHandlers(permRepo)
	statsHandlers := admin.NewStatsHandler(sqlxDB)

	// Rate limiters: a stricter preset for credential endpoints
	authRateLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	generalRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	apiV1 := router.Group("/api/v1")
	{
		// Credential endpoints: open, strictly rate limited, audited so
		// failed logins leave a trail.
		authGroup := apiV1.Group("/auth")
		authGroup.Use(middleware.RateLimitMiddleware(authRateLimiter))
		authGroup.Use(middleware.AuditMiddleware(recorder, &cfg.Audit))
		{
			authGroup.POST("/login", authHandlers.LoginHandler())
			authGroup.POST("/register", authHandlers.RegisterHandler())
			authGroup.POST("/verify-email", authHandlers.VerifyEmailHandler())

			authGroup.GET("/me",
				middleware.AuthMiddleware(userRepo),
				authHandlers.MeHandler())
		}

		// Admin endpoints: bearer token required, then a role or permission
		// gate per route, then audit capture.
		adminGroup := apiV1.Group("/admin")
		adminGroup.Use(middleware.RateLimitMiddleware(generalRateLimiter))
		adminGroup.Use(middleware.AuthMiddleware(userRepo))
		adminGroup.Use(middleware.AuditMiddleware(recorder, &cfg.Audit))
		{
			// User management. Reads resolve through the permission table;
			// mutations require the admin role outright.
			usersGroup := adminGroup.Group("/users")
			{
				usersGroup.GET("",
					middleware.RequirePermission(permRepo, auth.PermissionUsersRead),
					userHandlers.ListUsersHandler())
				usersGroup.GET("/export/csv",
					middleware.RequireRoles(auth.RoleAdmin),
					userHandlers.ExportUsersHandler())
				usersGroup.GET("/:id",
					middleware.RequirePermission(permRepo, auth.PermissionUsersRead),
					userHandlers.GetUserHandler())

				usersGroup.POST("",
					middleware.RequireRoles(auth.RoleAdmin),
					userHandlers.CreateUserHandler())
				usersGroup.PATCH("/:id",
					middleware.RequireRoles(auth.RoleAdmin),
					userHandlers.UpdateUserHandler())
				usersGroup.POST("/:id/lock",
					middleware.RequireRoles(auth.RoleAdmin),
					userHandlers.LockUserHandler())
				usersGroup.POST("/:id/unlock",
					middleware.RequireRoles(auth.RoleAdmin),
					userHandlers.UnlockUserHandler())
				usersGroup.PATCH("/:id/role",
					middleware.RequireRoles(auth.RoleAdmin),
					userHandlers.ChangeRoleHandler())
			}

			// Role metadata and dashboard stats
			adminGroup.GET("/roles",
				middleware.RequirePermission(permRepo, auth.PermissionUsersRead),
				roleHandlers.ListRolesHandler())
			adminGroup.GET("/stats/dashboard",
				middleware.RequirePermission(permRepo, auth.PermissionUsersRead),
				statsHandlers.GetDashboardStats)

			// Log queries
			auditGroup := adminGroup.Group("")
			auditGroup.Use(middleware.RequirePermission(permRepo, auth.PermissionAuditRead))
			{
				auditGroup.GET("/audit-logs", logHandlers.ListAuditLogsHandler())
				auditGroup.GET("/audit-logs/stats", logHandlers.AuditStatsHandler())
				auditGroup.GET("/action-logs", logHandlers.ListActionLogsHandler())
				auditGroup.GET("/action-logs/user/:userId", logHandlers.UserActionLogsHandler())
				auditGroup.GET("/action-logs/failed", logHandlers.FailedActionLogsHandler())
			}

			// Reports
			reportsGroup := adminGroup.Group("/reports")
			reportsGroup.Use(middleware.RequirePermission(permRepo, auth.PermissionReportsRead))
			{
				reportsGroup.GET("/registrations", reportHandlers.RegistrationsHandler())
				reportsGroup.GET("/login-success", reportHandlers.LoginSuccessHandler())
			}
		}
	}

	bg := &BackgroundServices{
		rateLimiters: []*middleware.RateLimiter{authRateLimiter, generalRateLimiter},
	}

	return router, bg
}

// @Summary      Health check
// @Description  Returns the health status of the service, including database connectivity.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status: healthy, time: RFC3339 timestamp"
// @Failure      503  {object}  map[string]interface{}  "status: unhealthy, error: database connection failed"
// @Router       /health [get]
// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      Readiness check
// @Description  Returns whether the service is ready to accept traffic. Checks both the relational store and the log store.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ready: true, checks, time"
// @Failure      503  {object}  map[string]interface{}  "ready: false, checks, error"
// @Router       /ready [get]
// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also pings the Mongo log store so
// a readiness gate fails when audit writes would error.
func readinessHandler(db *sql.DB, logs *logstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		if err := db.PingContext(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		if err := logs.Ping(c.Request.Context()); err != nil {
			checks["logstore"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "log store not ready",
			})
			return
		}
		checks["logstore"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// @Summary      API version
// @Description  Returns the current API version.
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "version, api_version"
// @Router       /version [get]
// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware provides structured request logging
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		if cfg.Logging.Format == "json" {
			logJSON(c, latency, path, query)
		} else {
			logText(c, latency, path, query)
		}
	}
}

// logJSON logs a request as a JSON-structured slog record.
func logJSON(c *gin.Context, latency time.Duration, path, query string) {
	requestID, _ := c.Get(middleware.RequestIDKey)
	slog.LogAttrs(
		c.Request.Context(),
		slog.LevelInfo,
		"http request",
		slog.String("method", c.Request.Method),
		slog.String("path", path),
		slog.String("query", query),
		slog.Int("status", c.Writer.Status()),
		slog.Int("size", c.Writer.Size()),
		slog.Duration("latency", latency),
		slog.String("ip", c.ClientIP()),
		slog.String("request_id", fmt.Sprintf("%v", requestID)),
		slog.String("user_agent", c.Request.UserAgent()),
	)
}

// logText logs a request as a human-readable slog text record.
func logText(c *gin.Context, latency time.Duration, path, query string) {
	// reuse the same structured output; slog will emit text format when the global
	// handler is a TextHandler (configured in telemetry.SetupLogger).
	logJSON(c, latency, path, query)
}

// CORSMiddleware handles CORS
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		allowed := false
		for _, allowedOrigin := range cfg.Security.CORS.AllowedOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				allowed = true
				break
			}
		}

		if allowed {
			if origin == "" {
				c.Header("Access-Control-Allow-Origin", "*")
			} else {
				c.Header("Access-Control-Allow-Origin", origin)
			}
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
			c.Header("Access-Control-Max-Age", "3600")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
