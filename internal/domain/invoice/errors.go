package invoice

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a workflow operation is not allowed
// from the invoice's current status
var ErrInvalidTransition = errors.New("invalid invoice status transition")

// ValidationError represents an error that occurs during invoice validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
