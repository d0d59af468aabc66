// users.go implements handlers for staff account management: listing,
// creation, updates, lock/unlock, role changes, and CSV export.
package admin

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/apperr"
	"github.com/admin-console/admin-console/internal/audit"
	"github.com/admin-console/admin-console/internal/auth"
	"github.com/admin-console/admin-console/internal/config"
	"github.com/admin-console/admin-console/internal/db/models"
	"github.com/admin-console/admin-console/internal/db/repositories"
	"github.com/admin-console/admin-console/internal/logstore"
)

// UserHandlers handles user management endpoints
type UserHandlers struct {
	cfg      *config.Config
	userRepo *repositories.UserRepository
	recorder audit.Recorder
}

// NewUserHandlers creates a new UserHandlers instance
func NewUserHandlers(cfg *config.Config, db *sql.DB, recorder audit.Recorder) *UserHandlers {
	return &UserHandlers{
		cfg:      cfg,
		userRepo: repositories.NewUserRepository(db),
		recorder: recorder,
	}
}

// recordUserAction writes a curated action entry for an admin operation on a
// target account.
func (h *UserHandlers) recordUserAction(c *gin.Context, actionType, targetID string, input map[string]interface{}) {
	if h.recorder == nil {
		return
	}
	act := currentActor(c)
	h.recorder.RecordAction(&logstore.ActionLog{
		ActionType:   actionType,
		UserID:       act.ID,
		Username:     act.Username,
		FirstName:    act.FirstName,
		LastName:     act.LastName,
		UserRole:     act.Role,
		ResourceType: "users",
		ResourceID:   targetID,
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Success:      true,
		InputData:    input,
	})
}

// userFilterFromQuery assembles the repository filter from list/export query
// parameters.
func userFilterFromQuery(c *gin.Context) (repositories.UserFilter, error) {
	filter := repositories.UserFilter{
		Search:   c.Query("search"),
		RoleType: c.Query("role_type"),
	}
	if filter.RoleType != "" && !auth.ValidRole(filter.RoleType) {
		return filter, apperr.ErrInvalidRoleType.WithMessage("invalid role_type filter: %s", filter.RoleType)
	}

	var err error
	if filter.IsActive, err = parseBoolParam(c, "is_active"); err != nil {
		return filter, err
	}
	if filter.EmailVerified, err = parseBoolParam(c, "email_verified"); err != nil {
		return filter, err
	}

	from, to, err := parseWindow(c)
	if err != nil {
		return filter, err
	}
	if raw := c.Query("created_after"); raw != "" {
		t, perr := parseTimeParam(raw, false)
		if perr != nil {
			return filter, apperr.ErrInvalidInput.WithMessage("invalid created_after parameter: %s", raw)
		}
		filter.CreatedAfter = &t
	} else if !from.IsZero() {
		filter.CreatedAfter = &from
	}
	if raw := c.Query("created_before"); raw != "" {
		t, perr := parseTimeParam(raw, true)
		if perr != nil {
			return filter, apperr.ErrInvalidInput.WithMessage("invalid created_before parameter: %s", raw)
		}
		filter.CreatedBefore = &t
	} else if !to.IsZero() {
		filter.CreatedBefore = &to
	}

	return filter, nil
}

func sanitizeUsers(users []*models.User) []*models.PublicUser {
	out := make([]*models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitize())
	}
	return out
}

// @Summary      List users
// @Description  Get a paginated, filterable list of staff accounts. Requires the users:read permission.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        page            query  int     false  "Page number (default 1)"
// @Param        limit           query  int     false  "Items per page, max 100 (default 20)"
// @Param        search          query  string  false  "Match against username, email, first and last name"
// @Param        role_type       query  string  false  "Filter by role (admin or support)"
// @Param        is_active       query  bool    false  "Filter by lock state"
// @Param        email_verified  query  bool    false  "Filter by verification state"
// @Param        created_after   query  string  false  "Lower creation-time bound (RFC 3339 or YYYY-MM-DD)"
// @Param        created_before  query  string  false  "Upper creation-time bound"
// @Success      200  {object}  map[string]interface{}  "data, page, limit, total, totalPages, hasNext, hasPrev"
// @Failure      400  {object}  map[string]interface{}  "Invalid filter parameter"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users [get]
// ListUsersHandler lists staff accounts with pagination and filters
// GET /api/v1/admin/users
func (h *UserHandlers) ListUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := userFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}

		page := parsePage(c, defaultPageSize, maxPageSize)
		filter.Limit = page.Limit
		filter.Offset = page.Offset()

		users, total, err := h.userRepo.ListUsers(c.Request.Context(), filter)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to list users").WithCause(err))
			return
		}

		c.JSON(http.StatusOK, paginated(sanitizeUsers(users), page, int64(total)))
	}
}

// @Summary      Export users as CSV
// @Description  Download the filtered staff account list as a CSV file. Password hashes are never included. Requires the admin role.
// @Tags         Users
// @Security     Bearer
// @Produce      text/csv
// @Success      200  {string}  string  "CSV payload"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/export/csv [get]
// ExportUsersHandler streams the filtered account list as CSV
// GET /api/v1/admin/users/export/csv
func (h *UserHandlers) ExportUsersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := userFilterFromQuery(c)
		if err != nil {
			respondError(c, err)
			return
		}

		users, err := h.userRepo.ListAllUsers(c.Request.Context(), filter)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to export users").WithCause(err))
			return
		}

		filename := fmt.Sprintf("users-%s.csv", time.Now().UTC().Format("2006-01-02"))
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Status(http.StatusOK)

		w := csv.NewWriter(c.Writer)
		_ = w.Write([]string{
			"ID", "Email", "Username", "First Name", "Last Name", "Role Type",
			"Is Active", "Email Verified", "Email Verified At", "Created At", "Updated At",
		})
		for _, u := range users {
			verifiedAt := ""
			if u.EmailVerifiedAt != nil {
				verifiedAt = u.EmailVerifiedAt.UTC().Format(time.RFC3339)
			}
			_ = w.Write([]string{
				u.ID,
				u.Email,
				u.Username,
				u.FirstName,
				u.LastName,
				u.RoleType,
				yesNo(u.IsActive),
				yesNo(u.EmailVerified),
				verifiedAt,
				u.CreatedAt.UTC().Format(time.RFC3339),
				u.UpdatedAt.UTC().Format(time.RFC3339),
			})
		}
		w.Flush()

		h.recordUserAction(c, logstore.ActionUsersExported, "", map[string]interface{}{
			"count": len(users),
		})
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// @Summary      Get user
// @Description  Get a staff account by ID. Requires the users:read permission.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "user"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "USER_NOT_FOUND"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id} [get]
// GetUserHandler retrieves a specific staff account by ID
// GET /api/v1/admin/users/:id
func (h *UserHandlers) GetUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.userRepo.GetUserByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if user == nil {
			respondError(c, apperr.ErrUserNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Sanitize()})
	}
}

// CreateUserRequest is the admin-create payload. Unlike self-registration the
// role is explicit and the account can be created pre-verified.
type CreateUserRequest struct {
	Username      string `json:"username" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=8"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	RoleType      string `json:"role_type" binding:"required"`
	EmailVerified bool   `json:"email_verified"`
}

// @Summary      Create user
// @Description  Create a staff account with an explicit role. Requires the admin role.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  CreateUserRequest  true  "User creation request"
// @Success      201  {object}  map[string]interface{}  "user"
// @Failure      400  {object}  map[string]interface{}  "Invalid request or INVALID_ROLE_TYPE"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      409  {object}  map[string]interface{}  "EMAIL_ALREADY_EXISTS or USERNAME_ALREADY_EXISTS"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users [post]
// CreateUserHandler creates a new staff account
// POST /api/v1/admin/users
func (h *UserHandlers) CreateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.ErrInvalidInput.WithMessage("username, email, password, and role_type are required").WithCause(err))
			return
		}
		if _, err := auth.ParseRole(req.RoleType); err != nil {
			respondError(c, apperr.ErrInvalidRoleType.WithMessage("invalid role type: %s", req.RoleType))
			return
		}

		ctx := c.Request.Context()

		existing, err := h.userRepo.GetUserByEmail(ctx, req.Email)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if existing != nil {
			respondError(c, apperr.ErrEmailAlreadyExists)
			return
		}

		existing, err = h.userRepo.GetUserByUsername(ctx, req.Username)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if existing != nil {
			respondError(c, apperr.ErrUsernameAlreadyExists)
			return
		}

		hash, err := auth.HashPassword(req.Password, h.cfg.Auth.BcryptCost)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to hash password").WithCause(err))
			return
		}

		user := &models.User{
			Username:      req.Username,
			Email:         req.Email,
			PasswordHash:  hash,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			RoleType:      req.RoleType,
			IsActive:      true,
			EmailVerified: req.EmailVerified,
		}
		if req.EmailVerified {
			now := time.Now()
			user.EmailVerifiedAt = &now
		}

		if err := h.userRepo.CreateUser(ctx, user); err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to create user").WithCause(err))
			return
		}

		h.recordUserAction(c, logstore.ActionUserCreated, user.ID, map[string]interface{}{
			"username":  user.Username,
			"email":     user.Email,
			"role_type": user.RoleType,
		})

		c.JSON(http.StatusCreated, gin.H{"user": user.Sanitize()})
	}
}

// UpdateUserRequest is the partial-update payload. Nil fields are untouched.
// Role and lock state have their own endpoints and are absent here.
type UpdateUserRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// @Summary      Update user
// @Description  Partially update a staff account's profile fields. Uniqueness of a changed email or username is re-checked. Requires the admin role.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "User ID"
// @Param        body  body  UpdateUserRequest  true  "Fields to update"
// @Success      200  {object}  map[string]interface{}  "user"
// @Failure      400  {object}  map[string]interface{}  "Invalid request"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "USER_NOT_FOUND"
// @Failure      409  {object}  map[string]interface{}  "EMAIL_ALREADY_EXISTS or USERNAME_ALREADY_EXISTS"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id} [patch]
// UpdateUserHandler updates a staff account's profile fields
// PATCH /api/v1/admin/users/:id
func (h *UserHandlers) UpdateUserHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.ErrInvalidInput.WithMessage("invalid request body").WithCause(err))
			return
		}

		ctx := c.Request.Context()

		user, err := h.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if user == nil {
			respondError(c, apperr.ErrUserNotFound)
			return
		}

		changed := map[string]interface{}{}

		if req.Email != nil && *req.Email != user.Email {
			existing, err := h.userRepo.GetUserByEmail(ctx, *req.Email)
			if err != nil {
				respondError(c, apperr.ErrDatabaseError.WithCause(err))
				return
			}
			if existing != nil && existing.ID != user.ID {
				respondError(c, apperr.ErrEmailAlreadyExists)
				return
			}
			user.Email = *req.Email
			changed["email"] = *req.Email
		}

		if req.Username != nil && *req.Username != user.Username {
			existing, err := h.userRepo.GetUserByUsername(ctx, *req.Username)
			if err != nil {
				respondError(c, apperr.ErrDatabaseError.WithCause(err))
				return
			}
			if existing != nil && existing.ID != user.ID {
				respondError(c, apperr.ErrUsernameAlreadyExists)
				return
			}
			user.Username = *req.Username
			changed["username"] = *req.Username
		}

		if req.FirstName != nil {
			user.FirstName = *req.FirstName
			changed["first_name"] = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
			changed["last_name"] = *req.LastName
		}

		if len(changed) > 0 {
			if err := h.userRepo.UpdateUser(ctx, user); err != nil {
				respondError(c, apperr.ErrDatabaseError.WithMessage("failed to update user").WithCause(err))
				return
			}
			h.recordUserAction(c, logstore.ActionUserUpdated, user.ID, changed)
		}

		c.JSON(http.StatusOK, gin.H{"user": user.Sanitize()})
	}
}

// @Summary      Lock user
// @Description  Disable a staff account. Locking an already-locked account is a distinguished conflict, not a no-op. Requires the admin role.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "user"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "USER_NOT_FOUND"
// @Failure      409  {object}  map[string]interface{}  "USER_ALREADY_LOCKED"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id}/lock [post]
// LockUserHandler deactivates a staff account
// POST /api/v1/admin/users/:id/lock
func (h *UserHandlers) LockUserHandler() gin.HandlerFunc {
	return h.setActiveHandler(false, logstore.ActionUserLocked, apperr.ErrUserAlreadyLocked)
}

// @Summary      Unlock user
// @Description  Re-enable a locked staff account. Unlocking an already-active account is a distinguished conflict. Requires the admin role.
// @Tags         Users
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "User ID"
// @Success      200  {object}  map[string]interface{}  "user"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "USER_NOT_FOUND"
// @Failure      409  {object}  map[string]interface{}  "USER_ALREADY_UNLOCKED"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id}/unlock [post]
// UnlockUserHandler reactivates a staff account
// POST /api/v1/admin/users/:id/unlock
func (h *UserHandlers) UnlockUserHandler() gin.HandlerFunc {
	return h.setActiveHandler(true, logstore.ActionUserUnlocked, apperr.ErrUserAlreadyUnlocked)
}

// setActiveHandler is the shared lock/unlock transition. The repository write
// carries its own state guard, so a concurrent duplicate transition still
// reports the conflict instead of silently overwriting.
func (h *UserHandlers) setActiveHandler(active bool, actionType string, conflict *apperr.Error) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")
		ctx := c.Request.Context()

		user, err := h.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if user == nil {
			respondError(c, apperr.ErrUserNotFound)
			return
		}
		if user.IsActive == active {
			respondError(c, conflict)
			return
		}

		rows, err := h.userRepo.SetActive(ctx, userID, active)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if rows == 0 {
			respondError(c, conflict)
			return
		}

		user.IsActive = active
		h.recordUserAction(c, actionType, user.ID, map[string]interface{}{
			"username": user.Username,
		})

		c.JSON(http.StatusOK, gin.H{"user": user.Sanitize()})
	}
}

// ChangeRoleRequest carries the target role for a role change.
type ChangeRoleRequest struct {
	RoleType string `json:"role_type" binding:"required"`
}

// @Summary      Change user role
// @Description  Set a staff account's role. The value is validated against the role enum before the target account is even read. Requires the admin role.
// @Tags         Users
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "User ID"
// @Param        body  body  ChangeRoleRequest  true  "Target role"
// @Success      200  {object}  map[string]interface{}  "user"
// @Failure      400  {object}  map[string]interface{}  "INVALID_ROLE_TYPE"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      404  {object}  map[string]interface{}  "USER_NOT_FOUND"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/users/{id}/role [patch]
// ChangeRoleHandler changes a staff account's role
// PATCH /api/v1/admin/users/:id/role
func (h *UserHandlers) ChangeRoleHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")

		var req ChangeRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperr.ErrInvalidInput.WithMessage("role_type is required").WithCause(err))
			return
		}
		role, err := auth.ParseRole(req.RoleType)
		if err != nil {
			respondError(c, apperr.ErrInvalidRoleType.WithMessage("invalid role type: %s", req.RoleType))
			return
		}

		ctx := c.Request.Context()

		user, err := h.userRepo.GetUserByID(ctx, userID)
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithCause(err))
			return
		}
		if user == nil {
			respondError(c, apperr.ErrUserNotFound)
			return
		}

		previous := user.RoleType
		if err := h.userRepo.UpdateRole(ctx, userID, string(role)); err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to change role").WithCause(err))
			return
		}
		user.RoleType = string(role)

		h.recordUserAction(c, logstore.ActionRoleChanged, user.ID, map[string]interface{}{
			"username":  user.Username,
			"from_role": previous,
			"to_role":   user.RoleType,
		})

		c.JSON(http.StatusOK, gin.H{"user": user.Sanitize()})
	}
}
