// Package apperror defines the error taxonomy shared by the service and
// storage layers. Handlers translate these errors into HTTP responses in one
// place; nothing below the HTTP layer knows about status codes.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers classify failures with errors.Is against these,
// regardless of how many times the error has been wrapped on the way up.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

// AppError carries a human-readable message alongside the sentinel it wraps.
// Field names the offending input field for validation failures, so the
// response can report the first violated field's message.
type AppError struct {
	Err     error
	Message string
	Field   string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports that no record of the given kind exists for id.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed reports a field constraint violation with a message
// suitable for returning to the client verbatim.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}
