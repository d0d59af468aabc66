// Package apperr defines the typed, recoverable errors raised by business
// logic. Every error carries a stable machine-readable code and an HTTP
// status; handlers translate them at the boundary without leaking internals.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code string.
type Code string

const (
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeEmailAlreadyExists       Code = "EMAIL_ALREADY_EXISTS"
	CodeUsernameAlreadyExists    Code = "USERNAME_ALREADY_EXISTS"
	CodeUserAlreadyLocked        Code = "USER_ALREADY_LOCKED"
	CodeUserAlreadyUnlocked      Code = "USER_ALREADY_UNLOCKED"
	CodeInvalidRoleType          Code = "INVALID_ROLE_TYPE"
	CodeInvalidCredentials       Code = "INVALID_CREDENTIALS"
	CodeEmailNotVerified         Code = "EMAIL_NOT_VERIFIED"
	CodeInvalidVerificationToken Code = "INVALID_VERIFICATION_TOKEN"
	CodeEmailAlreadyVerified     Code = "EMAIL_ALREADY_VERIFIED"
	CodeInvalidInput             Code = "INVALID_INPUT"
	CodeMissingRequiredField     Code = "MISSING_REQUIRED_FIELD"
	CodeUnauthorized             Code = "UNAUTHORIZED"
	CodePermissionDenied         Code = "PERMISSION_DENIED"
	CodeDatabaseError            Code = "DATABASE_ERROR"
	CodeEmailSendFailed          Code = "EMAIL_SEND_FAILED"
)

// Error is a typed business error with a stable code and HTTP status.
type Error struct {
	Code    Code
	Message string
	Status  int
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches two apperr values by code so callers can use errors.Is with the
// package-level sentinels below.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of e wrapping an underlying error.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	clone := *e
	clone.Message = fmt.Sprintf(format, args...)
	return &clone
}

func newError(code Code, status int, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

var (
	ErrUserNotFound             = newError(CodeUserNotFound, http.StatusNotFound, "user not found")
	ErrEmailAlreadyExists       = newError(CodeEmailAlreadyExists, http.StatusConflict, "email already exists")
	ErrUsernameAlreadyExists    = newError(CodeUsernameAlreadyExists, http.StatusConflict, "username already exists")
	ErrUserAlreadyLocked        = newError(CodeUserAlreadyLocked, http.StatusConflict, "user account is already locked")
	ErrUserAlreadyUnlocked      = newError(CodeUserAlreadyUnlocked, http.StatusConflict, "user account is already unlocked")
	ErrInvalidRoleType          = newError(CodeInvalidRoleType, http.StatusBadRequest, "invalid role type")
	ErrInvalidCredentials       = newError(CodeInvalidCredentials, http.StatusUnauthorized, "invalid credentials")
	ErrEmailNotVerified         = newError(CodeEmailNotVerified, http.StatusUnauthorized, "email address has not been verified")
	ErrInvalidVerificationToken = newError(CodeInvalidVerificationToken, http.StatusBadRequest, "invalid or expired verification token")
	ErrEmailAlreadyVerified     = newError(CodeEmailAlreadyVerified, http.StatusConflict, "email address is already verified")
	ErrInvalidInput             = newError(CodeInvalidInput, http.StatusBadRequest, "invalid input")
	ErrMissingRequiredField     = newError(CodeMissingRequiredField, http.StatusBadRequest, "missing required field")
	ErrUnauthorized             = newError(CodeUnauthorized, http.StatusUnauthorized, "authentication required")
	ErrPermissionDenied         = newError(CodePermissionDenied, http.StatusForbidden, "insufficient permissions")
	ErrDatabaseError            = newError(CodeDatabaseError, http.StatusInternalServerError, "database operation failed")
	ErrEmailSendFailed          = newError(CodeEmailSendFailed, http.StatusBadGateway, "failed to send email")
)

// FromError extracts the *Error from err's chain. Unknown errors map to a
// generic database error so internals never reach a response body.
func FromError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrDatabaseError
}
