package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIs_MatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("looking up account: %w", ErrUserNotFound)
	assert.True(t, errors.Is(wrapped, ErrUserNotFound))
	assert.False(t, errors.Is(wrapped, ErrInvalidCredentials))
}

func TestWithCause_PreservesCodeAndStatus(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := ErrDatabaseError.WithCause(cause)

	assert.Equal(t, CodeDatabaseError, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.ErrorIs(t, err, ErrDatabaseError)
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithCause_DoesNotMutateSentinel(t *testing.T) {
	_ = ErrUserNotFound.WithCause(errors.New("boom"))
	assert.Nil(t, errors.Unwrap(ErrUserNotFound))
}

func TestWithMessage(t *testing.T) {
	err := ErrInvalidRoleType.WithMessage("unknown role %q", "superuser")

	assert.Equal(t, `INVALID_ROLE_TYPE: unknown role "superuser"`, err.Error())
	assert.ErrorIs(t, err, ErrInvalidRoleType)
	// Sentinel keeps its generic message
	assert.Equal(t, "invalid role type", ErrInvalidRoleType.Message)
}

func TestFromError(t *testing.T) {
	t.Run("typed error passes through", func(t *testing.T) {
		got := FromError(fmt.Errorf("handler: %w", ErrUserAlreadyLocked))
		require.NotNil(t, got)
		assert.Equal(t, CodeUserAlreadyLocked, got.Code)
		assert.Equal(t, http.StatusConflict, got.Status)
	})

	t.Run("unknown error collapses to a generic 500", func(t *testing.T) {
		got := FromError(errors.New("pq: deadlock detected"))
		require.NotNil(t, got)
		assert.Equal(t, CodeDatabaseError, got.Code)
		assert.NotContains(t, got.Message, "deadlock")
	})
}

func TestSentinelStatuses(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{ErrUserNotFound, http.StatusNotFound},
		{ErrEmailAlreadyExists, http.StatusConflict},
		{ErrUsernameAlreadyExists, http.StatusConflict},
		{ErrUserAlreadyLocked, http.StatusConflict},
		{ErrUserAlreadyUnlocked, http.StatusConflict},
		{ErrInvalidRoleType, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusUnauthorized},
		{ErrEmailNotVerified, http.StatusUnauthorized},
		{ErrInvalidVerificationToken, http.StatusBadRequest},
		{ErrEmailAlreadyVerified, http.StatusConflict},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrEmailSendFailed, http.StatusBadGateway},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status, string(tc.err.Code))
	}
}
