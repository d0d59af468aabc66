// common.go holds shared helpers for the admin API handlers: error
// translation, pagination envelopes, actor resolution, and time window parsing.
package admin

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/apperr"
	"github.com/admin-console/admin-console/internal/db/models"
	"github.com/admin-console/admin-console/internal/middleware"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// respondError translates a business error into the client-facing JSON shape.
// Unknown errors collapse to a generic 500 so internals never leak.
func respondError(c *gin.Context, err error) {
	appErr := apperr.FromError(err)
	c.JSON(appErr.Status, gin.H{
		"error": appErr.Message,
		"code":  string(appErr.Code),
	})
}

// pageParams are the sanitized pagination inputs of a list endpoint.
type pageParams struct {
	Page  int
	Limit int
}

func (p pageParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// parsePage reads page/limit query parameters, clamping limit to maxLimit.
// A zero maxLimit selects the user-list defaults.
func parsePage(c *gin.Context, defaultLimit, maxLimit int) pageParams {
	if defaultLimit <= 0 {
		defaultLimit = defaultPageSize
	}
	if maxLimit <= 0 {
		maxLimit = maxPageSize
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return pageParams{Page: page, Limit: limit}
}

// paginated builds the list response envelope shared by every paginated
// endpoint. totalPages/hasNext/hasPrev are derived here so clients never
// have to recompute them.
func paginated(data interface{}, p pageParams, total int64) gin.H {
	totalPages := int64(0)
	if total > 0 {
		totalPages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return gin.H{
		"data":       data,
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      total,
		"totalPages": totalPages,
		"hasNext":    int64(p.Page) < totalPages,
		"hasPrev":    p.Page > 1 && total > 0,
	}
}

// actor is the identity attached to the request by the auth middleware,
// denormalized for action log entries.
type actor struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Role      string
}

// currentActor resolves the caller's identity from the request context.
// Unauthenticated requests yield the guest actor.
func currentActor(c *gin.Context) actor {
	if v, ok := c.Get(middleware.ContextUser); ok {
		if user, ok := v.(*models.User); ok && user != nil {
			return actor{
				ID:        user.ID,
				Username:  user.Username,
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Role:      user.RoleType,
			}
		}
	}
	return actor{Role: middleware.GuestRole}
}

// parseWindow reads optional from/to query parameters. Both RFC 3339
// timestamps and bare YYYY-MM-DD dates are accepted; a bare date used as the
// upper bound covers the whole day.
func parseWindow(c *gin.Context) (from, to time.Time, err error) {
	if raw := c.Query("from"); raw != "" {
		from, err = parseTimeParam(raw, false)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.ErrInvalidInput.WithMessage("invalid from parameter: %s", raw)
		}
	}
	if raw := c.Query("to"); raw != "" {
		to, err = parseTimeParam(raw, true)
		if err != nil {
			return time.Time{}, time.Time{}, apperr.ErrInvalidInput.WithMessage("invalid to parameter: %s", raw)
		}
	}
	return from, to, nil
}

func parseTimeParam(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// parseBoolParam reads an optional boolean query parameter, returning nil
// when absent and an error on anything strconv fails to parse.
func parseBoolParam(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.ErrInvalidInput.WithMessage("invalid %s parameter: %s", name, raw)
	}
	return &v, nil
}
