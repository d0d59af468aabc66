// Package repositories implements the data access layer (repository pattern) for the admin console.
// Each repository type encapsulates all database queries for a domain entity.
// Handlers never issue SQL directly — all database access goes through this layer, which makes query logic testable in isolation and prevents accidental cross-domain data access.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/admin-console/admin-console/internal/db/models"
)

// userColumns is the canonical SELECT column list for user queries.
const userColumns = `id, username, email, password_hash, first_name, last_name,
		role_type, is_active, email_verified, email_verified_at, created_at, updated_at`

// UserFilter narrows ListUsers results. Nil pointer fields are ignored.
type UserFilter struct {
	// Search matches case-insensitively against username, email, first and
	// last name.
	Search        string
	RoleType      string
	IsActive      *bool
	EmailVerified *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// UserRepository handles user database operations
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.RoleType,
		&user.IsActive,
		&user.EmailVerified,
		&user.EmailVerifiedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates a new user
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name,
			role_type, is_active, email_verified, email_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.RoleType,
		user.IsActive,
		user.EmailVerified,
		user.EmailVerifiedAt,
		user.CreatedAt,
		user.UpdatedAt,
	)

	return err
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser updates a user's profile fields (username, email, names).
// Role and lock state have dedicated guarded writes below.
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users
		SET username = $2, email = $3, first_name = $4, last_name = $5, updated_at = $6
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FirstName,
		user.LastName,
		user.UpdatedAt,
	)

	return err
}

// buildUserFilter assembles WHERE conditions for a UserFilter. Returned args
// are positional starting at $1.
func buildUserFilter(filter UserFilter) (string, []interface{}) {
	conditions := []string{}
	args := []interface{}{}
	paramIndex := 1

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, fmt.Sprintf(
			"(username ILIKE $%d OR email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)",
			paramIndex, paramIndex, paramIndex, paramIndex))
		args = append(args, pattern)
		paramIndex++
	}
	if filter.RoleType != "" {
		conditions = append(conditions, fmt.Sprintf("role_type = $%d", paramIndex))
		args = append(args, filter.RoleType)
		paramIndex++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", paramIndex))
		args = append(args, *filter.IsActive)
		paramIndex++
	}
	if filter.EmailVerified != nil {
		conditions = append(conditions, fmt.Sprintf("email_verified = $%d", paramIndex))
		args = append(args, *filter.EmailVerified)
		paramIndex++
	}
	if filter.CreatedAfter != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", paramIndex))
		args = append(args, *filter.CreatedAfter)
		paramIndex++
	}
	if filter.CreatedBefore != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", paramIndex))
		args = append(args, *filter.CreatedBefore)
		paramIndex++
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}
	return where, args
}

// ListUsers retrieves a filtered, paginated list of users plus the total count
// matching the filter (ignoring limit/offset).
func (r *UserRepository) ListUsers(ctx context.Context, filter UserFilter) ([]*models.User, int, error) {
	where, args := buildUserFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM users` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT `+userColumns+` FROM users%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	return users, total, rows.Err()
}

// ListAllUsers retrieves every user matching the filter without pagination,
// ordered by creation time. Used by the CSV export.
func (r *UserRepository) ListAllUsers(ctx context.Context, filter UserFilter) ([]*models.User, error) {
	where, args := buildUserFilter(filter)

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// SetActive flips the lock state of an account. The WHERE clause guards
// against redundant transitions, so locking an already-locked account
// reports zero affected rows and writes nothing.
func (r *UserRepository) SetActive(ctx context.Context, userID string, active bool) (int64, error) {
	query := `
		UPDATE users
		SET is_active = $2, updated_at = $3
		WHERE id = $1 AND is_active <> $2
	`

	res, err := r.db.ExecContext(ctx, query, userID, active, time.Now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpdateRole writes a new role for a user. Role validity is checked by the
// handler before this runs; the database CHECK constraint is the backstop.
func (r *UserRepository) UpdateRole(ctx context.Context, userID, roleType string) error {
	query := `UPDATE users SET role_type = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, userID, roleType, time.Now())
	return err
}

// MarkEmailVerified sets the verification flag and timestamp.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	now := time.Now()
	query := `
		UPDATE users
		SET email_verified = TRUE, email_verified_at = $2, updated_at = $2
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, userID, now)
	return err
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM users`
	err := r.db.QueryRowContext(ctx, query).Scan(&total)
	return total, err
}
