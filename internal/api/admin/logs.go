// logs.go implements handlers for querying the append-only audit and action
// log collections.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/apperr"
	"github.com/admin-console/admin-console/internal/logstore"
)

// LogHandlers serves compliance queries over the log store.
type LogHandlers struct {
	store *logstore.Store
}

// NewLogHandlers creates a new LogHandlers instance
func NewLogHandlers(store *logstore.Store) *LogHandlers {
	return &LogHandlers{store: store}
}

// @Summary      List audit logs
// @Description  Query request-level audit entries, newest first. Without from/to the window defaults to the trailing seven days. Requires the audit:read permission.
// @Tags         Logs
// @Security     Bearer
// @Produce      json
// @Param        page         query  int     false  "Page number (default 1)"
// @Param        limit        query  int     false  "Items per page, max 500 (default 50)"
// @Param        action       query  string  false  "Filter by action (e.g. lock_users)"
// @Param        action_type  query  string  false  "Filter by action type (read/create/update/delete)"
// @Param        resource     query  string  false  "Filter by resource name"
// @Param        resource_id  query  string  false  "Filter by resource ID"
// @Param        user_id      query  string  false  "Filter by actor user ID"
// @Param        success      query  bool    false  "Filter by outcome"
// @Param        from         query  string  false  "Window start (RFC 3339 or YYYY-MM-DD)"
// @Param        to           query  string  false  "Window end"
// @Success      200  {object}  map[string]interface{}  "data, page, limit, total, totalPages, hasNext, hasPrev"
// @Failure      400  {object}  map[string]interface{}  "Invalid filter parameter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/audit-logs [get]
// ListAuditLogsHandler queries request-level audit entries
// GET /api/v1/admin/audit-logs
func (h *LogHandlers) ListAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		success, err := parseBoolParam(c, "success")
		if err != nil {
			respondError(c, err)
			return
		}
		from, to, err := parseWindow(c)
		if err != nil {
			respondError(c, err)
			return
		}

		page := parsePage(c, logstore.DefaultLimit, logstore.MaxLimit)
		filter := logstore.AuditLogFilter{
			Action:     c.Query("action"),
			ActionType: c.Query("action_type"),
			Resource:   c.Query("resource"),
			ResourceID: c.Query("resource_id"),
			UserID:     c.Query("user_id"),
			Success:    success,
			From:       from,
			To:         to,
			Limit:      page.Limit,
			Skip:       page.Offset(),
		}

		logs, total, err := h.store.ListAuditLogs(c.Request.Context(), filter)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to query audit logs").WithCause(err))
			return
		}

		c.JSON(http.StatusOK, paginated(logs, page, total))
	}
}

// @Summary      Audit log statistics
// @Description  Aggregate totals, success rate, per-action-type and per-resource breakdowns, and the ten most active users over a window (default: trailing seven days). Requires the audit:read permission.
// @Tags         Logs
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Window start (RFC 3339 or YYYY-MM-DD)"
// @Param        to    query  string  false  "Window end"
// @Success      200  {object}  logstore.AuditStats
// @Failure      400  {object}  map[string]interface{}  "Invalid window parameter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/audit-logs/stats [get]
// AuditStatsHandler aggregates audit activity for a window
// GET /api/v1/admin/audit-logs/stats
func (h *LogHandlers) AuditStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseWindow(c)
		if err != nil {
			respondError(c, err)
			return
		}

		stats, err := h.store.GetAuditStats(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to aggregate audit statistics").WithCause(err))
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// actionFilterFromQuery assembles the shared action log filter.
func actionFilterFromQuery(c *gin.Context) (logstore.ActionLogFilter, pageParams, error) {
	success, err := parseBoolParam(c, "success")
	if err != nil {
		return logstore.ActionLogFilter{}, pageParams{}, err
	}
	from, to, err := parseWindow(c)
	if err != nil {
		return logstore.ActionLogFilter{}, pageParams{}, err
	}

	page := parsePage(c, logstore.DefaultLimit, logstore.MaxLimit)
	filter := logstore.ActionLogFilter{
		ActionType:   c.Query("action_type"),
		UserID:       c.Query("user_id"),
		Username:     c.Query("username"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		Success:      success,
		From:         from,
		To:           to,
		Limit:        page.Limit,
		Skip:         page.Offset(),
	}
	return filter, page, nil
}

// @Summary      List action logs
// @Description  Query curated business action entries (logins, registrations, lock/unlock, role changes), newest first. Without from/to the window defaults to the trailing thirty days. Requires the audit:read permission.
// @Tags         Logs
// @Security     Bearer
// @Produce      json
// @Param        page           query  int     false  "Page number (default 1)"
// @Param        limit          query  int     false  "Items per page, max 500 (default 50)"
// @Param        action_type    query  string  false  "Filter by action type (e.g. user_login)"
// @Param        user_id        query  string  false  "Filter by actor user ID"
// @Param        username       query  string  false  "Filter by actor username"
// @Param        resource_type  query  string  false  "Filter by resource type"
// @Param        resource_id    query  string  false  "Filter by resource ID"
// @Param        success        query  bool    false  "Filter by outcome"
// @Param        from           query  string  false  "Window start"
// @Param        to             query  string  false  "Window end"
// @Success      200  {object}  map[string]interface{}  "data, page, limit, total, totalPages, hasNext, hasPrev"
// @Failure      400  {object}  map[string]interface{}  "Invalid filter parameter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/action-logs [get]
// ListActionLogsHandler queries curated business action entries
// GET /api/v1/admin/action-logs
func (h *LogHandlers) ListActionLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, page, err := actionFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}

		logs, total, err := h.store.ListActionLogs(c.Request.Context(), filter)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to query action logs").WithCause(err))
			return
		}

		c.JSON(http.StatusOK, paginated(logs, page, total))
	}
}

// @Summary      List one user's action logs
// @Description  Query the action history of a single account, newest first. Requires the audit:read permission.
// @Tags         Logs
// @Security     Bearer
// @Produce      json
// @Param        userId  query  string  true   "Target user ID"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page, max 500 (default 50)"
// @Success      200  {object}  map[string]interface{}  "data, page, limit, total, totalPages, hasNext, hasPrev"
// @Failure      400  {object}  map[string]interface{}  "Invalid filter parameter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/action-logs/user/{userId} [get]
// UserActionLogsHandler queries one account's action history
// GET /api/v1/admin/action-logs/user/:userId
func (h *LogHandlers) UserActionLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, page, err := actionFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}

		logs, total, err := h.store.ListActionLogsByUser(c.Request.Context(), c.Param("userId"), filter)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to query action logs").WithCause(err))
			return
		}

		c.JSON(http.StatusOK, paginated(logs, page, total))
	}
}

// @Summary      List failed actions
// @Description  Query only failed business actions (rejected logins, conflicts), newest first. Requires the audit:read permission.
// @Tags         Logs
// @Security     Bearer
// @Produce      json
// @Param        page   query  int  false  "Page number (default 1)"
// @Param        limit  query  int  false  "Items per page, max 500 (default 50)"
// @Success      200  {object}  map[string]interface{}  "data, page, limit, total, totalPages, hasNext, hasPrev"
// @Failure      400  {object}  map[string]interface{}  "Invalid filter parameter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/action-logs/failed [get]
// FailedActionLogsHandler queries failed business actions
// GET /api/v1/admin/action-logs/failed
func (h *LogHandlers) FailedActionLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, page, err := actionFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}

		logs, total, err := h.store.ListFailedActionLogs(c.Request.Context(), filter)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to query action logs").WithCause(err))
			return
		}

		c.JSON(http.StatusOK, paginated(logs, page, total))
	}
}
