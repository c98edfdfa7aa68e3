package services

import (
	"errors"
	"fmt"
	"strings"

	"transportdesk/internal/repositories"
)

// Domain errors surfaced by the service layer. Handlers classify these into
// HTTP statuses; anything unrecognized becomes an internal error.
var (
	ErrForbidden          = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrSelfDelete         = errors.New("cannot delete your own account")
)

// ValidationError carries itemized per-field messages for a rejected input.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsNotFound reports whether err represents a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}

// IsDuplicate reports whether err represents a uniqueness collision, such as
// two racing creates computing the same business ID.
func IsDuplicate(err error) bool {
	return errors.Is(err, repositories.ErrDuplicateKey)
}
