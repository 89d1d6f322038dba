package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthCode(t *testing.T) {
	authLike := []ErrorCode{
		ErrCodeAuthRequired, ErrCodeInvalidSignature, ErrCodeSessionExpired,
		ErrCodeCrossTenantDenied, ErrCodeScopeInvalid, ErrCodeInvalidCredentials,
		ErrCodeInvalidToken, ErrCodeTokenAlreadyUsed, ErrCodeTokenExpired,
	}
	for _, code := range authLike {
		assert.True(t, IsAuthCode(code), "%s should be an auth code", code)
	}

	for _, code := range []ErrorCode{ErrCodeValidationFailed, ErrCodeNotFound, ErrCodeInternal, ErrCodeDatabase} {
		assert.False(t, IsAuthCode(code), "%s should not be an auth code", code)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Database(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DATABASE_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithCauseAndDetails(t *testing.T) {
	cause := errors.New("boom")
	err := Internal("something broke").WithCause(cause).WithDetails(map[string]string{"op": "save"})

	assert.Equal(t, cause, err.Unwrap())
	assert.Equal(t, map[string]string{"op": "save"}, err.Details)
}

func TestGetCode(t *testing.T) {
	t.Run("app error returns its code", func(t *testing.T) {
		assert.Equal(t, ErrCodeNotFound, GetCode(NotFound("Session")))
	})

	t.Run("wrapped app error is still found", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", TokenExpired())
		assert.Equal(t, ErrCodeTokenExpired, GetCode(wrapped))
	})

	t.Run("plain error defaults to internal", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
	})
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(InvalidCredentials(), ErrCodeInvalidCredentials))
	assert.False(t, HasCode(InvalidCredentials(), ErrCodeNotFound))
}

func TestConstructors(t *testing.T) {
	t.Run("validation failure carries field errors", func(t *testing.T) {
		err := ValidationFailed([]FieldError{{Field: "email", Message: "Invalid email"}})
		assert.Equal(t, ErrCodeValidationFailed, err.Code)

		fields, ok := err.Details.([]FieldError)
		require.True(t, ok)
		require.Len(t, fields, 1)
		assert.Equal(t, "email", fields[0].Field)
	})

	t.Run("invalid transition names both states", func(t *testing.T) {
		err := InvalidTransition("INVITED", "APPROVED")
		assert.Equal(t, ErrCodeInvalidTransition, err.Code)
		assert.Contains(t, err.Message, "INVITED")
		assert.Contains(t, err.Message, "APPROVED")
	})

	t.Run("not found names the resource", func(t *testing.T) {
		assert.Equal(t, "Session not found", NotFound("Session").Message)
	})
}

func TestAsAppError(t *testing.T) {
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", AuthRequired()))
	require.True(t, ok)
	assert.Equal(t, ErrCodeAuthRequired, appErr.Code)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
