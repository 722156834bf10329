package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores for an unknown item id.
	ErrNotFound = errors.New("entity not found")

	// ErrValidationFailed matches every ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// ValidationError represents a validation error with detailed field information.
// errors.Is(err, ErrValidationFailed) reports true for every ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

// Error returns a formatted error message for the validation error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// Unwrap ties every ValidationError to ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
