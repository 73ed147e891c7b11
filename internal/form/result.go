// Package form validates submitted page forms into typed values.
//
// Every validator returns a Result: either the validated value or the list
// of field errors to show next to the re-rendered form.
package form

import "strings"

// FieldError describes one problem with one submitted field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is an ordered list of field errors.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Add appends an error for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Get returns the first message recorded for field.
func (e Errors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	return e.Get(field) != ""
}

// Result is either a valid T or a non-empty Errors list, never both.
type Result[T any] struct {
	value T
	errs  Errors
}

// Valid wraps a validated value.
func Valid[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Invalid wraps field errors. An empty list still yields an invalid result.
func Invalid[T any](errs Errors) Result[T] {
	if len(errs) == 0 {
		errs = Errors{{Field: "form", Message: "invalid submission"}}
	}
	return Result[T]{errs: errs}
}

// OK reports whether the result holds a valid value.
func (r Result[T]) OK() bool {
	return len(r.errs) == 0
}

// Value returns the validated value and true, or the zero value and false.
func (r Result[T]) Value() (T, bool) {
	if !r.OK() {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Errors returns the field errors of an invalid result.
func (r Result[T]) Errors() Errors {
	return r.errs
}
