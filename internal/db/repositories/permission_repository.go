package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// PermissionRepository resolves the fixed role→permission table consulted by
// the permission-policy middleware. The table is seeded by migration and is
// effectively read-only at runtime.
type PermissionRepository struct {
	db *sqlx.DB
}

// NewPermissionRepository creates a new PermissionRepository
func NewPermissionRepository(db *sqlx.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// GetPermissionsForRole returns every permission string granted to a role.
// An unknown role yields an empty slice, not an error; the middleware treats
// an empty grant as a deny.
func (r *PermissionRepository) GetPermissionsForRole(ctx context.Context, roleType string) ([]string, error) {
	perms := []string{}
	err := r.db.SelectContext(ctx, &perms,
		`SELECT permission FROM role_permissions WHERE role_type = $1 ORDER BY permission`,
		roleType)
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// ListRolePermissions returns the whole table as role → permissions, used by
// the role metadata endpoint.
func (r *PermissionRepository) ListRolePermissions(ctx context.Context) (map[string][]string, error) {
	rows := []struct {
		RoleType   string `db:"role_type"`
		Permission string `db:"permission"`
	}{}
	err := r.db.SelectContext(ctx, &rows,
		`SELECT role_type, permission FROM role_permissions ORDER BY role_type, permission`)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	for _, row := range rows {
		out[row.RoleType] = append(out[row.RoleType], row.Permission)
	}
	return out, nil
}
