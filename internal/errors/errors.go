package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeAuthRequired       ErrorCode = "AUTH_REQUIRED"
	ErrCodeInvalidSignature   ErrorCode = "INVALID_SIGNATURE"
	ErrCodeSessionExpired     ErrorCode = "SESSION_EXPIRED"
	ErrCodeCrossTenantDenied  ErrorCode = "CROSS_TENANT_DENIED"
	ErrCodeScopeInvalid       ErrorCode = "SCOPE_INVALID"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"

	// Magic links
	ErrCodeInvalidToken     ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenAlreadyUsed ErrorCode = "TOKEN_ALREADY_USED"
	ErrCodeTokenExpired     ErrorCode = "TOKEN_EXPIRED"

	// Validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// Lifecycle
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// Resource
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Rate Limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// authCodes surface to clients as a uniform unauthorized outcome so the
// error body never reveals which check failed.
var authCodes = map[ErrorCode]bool{
	ErrCodeAuthRequired:       true,
	ErrCodeInvalidSignature:   true,
	ErrCodeSessionExpired:     true,
	ErrCodeCrossTenantDenied:  true,
	ErrCodeScopeInvalid:       true,
	ErrCodeInvalidCredentials: true,
	ErrCodeInvalidToken:       true,
	ErrCodeTokenAlreadyUsed:   true,
	ErrCodeTokenExpired:       true,
}

// IsAuthCode reports whether a code belongs to the auth category.
func IsAuthCode(code ErrorCode) bool {
	return authCodes[code]
}

// FieldError names one offending field in a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func AuthRequired() *AppError {
	return New(ErrCodeAuthRequired, "Authentication required")
}

func InvalidSignature() *AppError {
	return New(ErrCodeInvalidSignature, "Session signature invalid")
}

func SessionExpired() *AppError {
	return New(ErrCodeSessionExpired, "Session expired")
}

func CrossTenantDenied() *AppError {
	return New(ErrCodeCrossTenantDenied, "Cross-tenant access denied")
}

func ScopeInvalid() *AppError {
	return New(ErrCodeScopeInvalid, "Session scope invalid")
}

func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid email or password")
}

func InvalidToken() *AppError {
	return New(ErrCodeInvalidToken, "Magic link is invalid")
}

func TokenAlreadyUsed() *AppError {
	return New(ErrCodeTokenAlreadyUsed, "Magic link already used")
}

func TokenExpired() *AppError {
	return New(ErrCodeTokenExpired, "Magic link expired")
}

func ValidationFailed(fieldErrors []FieldError) *AppError {
	return New(ErrCodeValidationFailed, "Validation failed").WithDetails(fieldErrors)
}

func InvalidInput(field string, reason string) *AppError {
	return New(ErrCodeInvalidInput, fmt.Sprintf("Invalid %s: %s", field, reason))
}

func InvalidTransition(from, to string) *AppError {
	return New(ErrCodeInvalidTransition, fmt.Sprintf("Invalid transition from %s to %s", from, to)).
		WithDetails(map[string]string{"from": from, "to": to})
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func AlreadyExists(resource string) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource))
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
