// Package common defines shared constants and sentinel errors used across
// the goproj server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Credential errors. ErrPendingApproval is only returned once the
	// password has been verified.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("account pending approval")

	// Project access errors.
	ErrNotAMember              = errors.New("not a member of this project")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	ErrOwnerCannotLeave        = errors.New("owner must transfer ownership before leaving the project")

	// Token errors (malformed, bad signature, expired).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError reports bad input together with a message that is safe
// to show to the client. It matches ErrorValidation under errors.Is.
type ValidationError struct {
	Message string
}

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrorValidation }
