// Package apperror defines the error taxonomy shared by the store, the
// services and the HTTP handlers.
//
// Every error the core produces on purpose wraps one of the sentinel values
// below, so callers classify it with errors.Is no matter how many layers of
// fmt.Errorf("...: %w") sit on top. Handlers map the sentinels to responses:
//
//	ErrNotFound        → 404 page
//	ErrForbidden       → redirect to a read-only view
//	ErrUnauthenticated → redirect to the login page with ?next=
//	ErrValidation      → form re-rendered with field errors
//	ErrConflict        → form re-rendered (e.g. username taken)
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation error")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type AppError struct {
	Err     error               // sentinel
	Message string              // human-readable error message
	Field   string              // optional: single field causing the error
	Fields  map[string][]string // optional: per-field messages for form errors
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string][]string{field: {message}},
	}
}

// Invalid wraps a set of field errors produced by form validation.
// The message lists the offending fields in a stable order.
func Invalid(fields map[string][]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	return &AppError{
		Err:     ErrValidation,
		Message: "invalid fields: " + strings.Join(names, ", "),
		Fields:  fields,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// Page handlers recover from it by redirecting to a read-only view.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated is returned by core operations that need an identity
// when the caller is anonymous.
func Unauthenticated(action string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: fmt.Sprintf("authentication required to %s", action),
	}
}

// FieldErrors extracts per-field messages from err, or nil when err carries
// none. Single-field errors are reported under their Field.
func FieldErrors(err error) map[string][]string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	if len(appErr.Fields) > 0 {
		return appErr.Fields
	}
	if appErr.Field != "" {
		return map[string][]string{appErr.Field: {appErr.Message}}
	}
	return nil
}
