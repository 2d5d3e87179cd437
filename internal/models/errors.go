package models

import (
	"errors"
	"fmt"
)

// Error taxonomy crossing the adapter boundary. Provider and network errors
// are converted to one of these before reaching the handler layer; handlers
// map them to HTTP statuses and never expose raw upstream detail.
var (
	// ErrAuthRequired means the request carries no usable credentials (401).
	ErrAuthRequired = errors.New("authentication required")

	// ErrReconnectRequired means an OAuth refresh failed terminally. This is
	// not transient; the tenant must re-run the connection flow.
	ErrReconnectRequired = errors.New("provider reconnect required")

	// ErrProviderUnavailable means the upstream timed out or returned 5xx.
	// Callers may retry; the adapter itself never retries more than once.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidSignature means webhook signature verification failed (400).
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrTenantNotFound means no tenant resolved for the request (404).
	ErrTenantNotFound = errors.New("tenant not found")
)

// ValidationError reports malformed input with a field-level message (400).
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-scoped validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
