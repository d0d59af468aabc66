// Package models - user.go defines the User model for staff accounts with
// credentials, role, lock state, and email verification fields.
package models

import "time"

// User represents a staff account in the system. PasswordHash never leaves
// the repository layer; API responses use Sanitize().
type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	RoleType        string
	IsActive        bool
	EmailVerified   bool
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PublicUser is the response shape for a staff account. It carries no
// credential material.
type PublicUser struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	RoleType        string     `json:"role_type"`
	IsActive        bool       `json:"is_active"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Sanitize returns the response shape of a user with the password hash dropped.
func (u *User) Sanitize() *PublicUser {
	return &PublicUser{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		RoleType:        u.RoleType,
		IsActive:        u.IsActive,
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// FullName joins the first and last name for display and email greetings.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	default:
		return u.FirstName + " " + u.LastName
	}
}
