// Package service provides business logic for the application.
package service

import (
	"errors"

	"github.com/filedesk/filedesk/internal/form"
)

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrUnauthenticated    = errors.New("authentication required")
)

// ValidationError reports user input that was rejected before any side effect.
type ValidationError struct {
	Fields form.Errors
	// Reason is a short machine-readable cause used for metrics.
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

// Message returns the first field message, suitable for a flash.
func (e *ValidationError) Message() string {
	if len(e.Fields) == 0 {
		return "Invalid submission."
	}
	return e.Fields[0].Message
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

func newValidationError(reason, field, message string) *ValidationError {
	var errs form.Errors
	errs.Add(field, message)
	return &ValidationError{Fields: errs, Reason: reason}
}
