// roles.go implements the role metadata endpoint backing the permission
// matrix shown in the console UI.
package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admin-console/admin-console/internal/apperr"
	"github.com/admin-console/admin-console/internal/db/repositories"
)

// RoleHandlers serves the role → permission table.
type RoleHandlers struct {
	permRepo *repositories.PermissionRepository
}

// NewRoleHandlers creates a new RoleHandlers instance
func NewRoleHandlers(permRepo *repositories.PermissionRepository) *RoleHandlers {
	return &RoleHandlers{permRepo: permRepo}
}

// @Summary      List roles and permissions
// @Description  Return every recognized role with the permissions it grants, as seeded by migration. Requires the users:read permission.
// @Tags         Roles
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "roles: role → permission list"
// @Failure      401  {object}  map[string]interface{}  "Unauthorized"
// @Failure      500  {object}  map[string]interface{}  "Internal server error"
// @Router       /api/v1/admin/roles [get]
// ListRolesHandler returns the role → permission table
// GET /api/v1/admin/roles
func (h *RoleHandlers) ListRolesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := h.permRepo.ListRolePermissions(c.Request.Context())
		if err != nil {
			respondError(c, apperr.ErrDatabaseError.WithMessage("failed to load role permissions").WithCause(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"roles": roles})
	}
}
