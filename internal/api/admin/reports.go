// reports.go implements handlers for the reporting aggregations built on the
// action log collection.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/apperr"
	"github.com/admin-console/admin-console/internal/logstore"
)

// ReportHandlers serves reporting aggregations over the log store.
type ReportHandlers struct {
	store *logstore.Store
}

// NewReportHandlers creates a new ReportHandlers instance
func NewReportHandlers(store *logstore.Store) *ReportHandlers {
	return &ReportHandlers{store: store}
}

// @Summary      Registration report
// @Description  Daily counts of successful self-registrations over a window (default: trailing thirty days), bucketed by UTC date. Requires the reports:read permission.
// @Tags         Reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Window start (RFC 3339 or YYYY-MM-DD)"
// @Param        to    query  string  false  "Window end"
// @Success      200  {object}  logstore.RegistrationReport
// @Failure      400  {object}  map[string]interface{}  "Invalid window parameter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/reports/registrations [get]
// RegistrationsHandler reports daily registration counts
// GET /api/v1/admin/reports/registrations
func (h *ReportHandlers) RegistrationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseWindow(c)
		if err != nil {
			respondError(c, err)
			return
		}

		report, err := h.store.GetRegistrationReport(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to build registration report").WithCause(err))
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

// @Summary      Login success report
// @Description  Daily login attempts and successes over a window (default: trailing thirty days) plus overall and per-day success rates. Requires the reports:read permission.
// @Tags         Reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Window start (RFC 3339 or YYYY-MM-DD)"
// @Param        to    query  string  false  "Window end"
// @Success      200  {object}  logstore.LoginReport
// @Failure      400  {object}  map[string]interface{}  "Invalid window parameter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/reports/login-success [get]
// LoginSuccessHandler reports daily login success rates
// GET /api/v1/admin/reports/login-success
func (h *ReportHandlers) LoginSuccessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, to, err := parseWindow(c)
		if err != nil {
			respondError(c, err)
			return
		}

		report, err := h.store.GetLoginReport(c.Request.Context(), from, to)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to build login report").WithCause(err))
			return
		}

		c.JSON(http.StatusOK, report)
	}
}
