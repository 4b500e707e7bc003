package server

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication failed")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// Error is a domain failure that is safe to show to the user.
type Error struct {
	Kind    error
	Message string
	// Fields holds field-level messages, keyed by form field name.
	Fields map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// ValidationError reports malformed, missing or mismatched input.
func ValidationError(message string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: message, Fields: fields}
}

// ConflictError reports a uniqueness violation on field.
func ConflictError(field, message string) *Error {
	return &Error{Kind: ErrConflict, Message: message, Fields: map[string]string{field: message}}
}

// AuthError reports bad credentials.
func AuthError(message string) *Error {
	return &Error{Kind: ErrAuth, Message: message}
}

// NotFoundError reports a missing or out-of-tenant resource.
func NotFoundError(message string) *Error {
	return &Error{Kind: ErrNotFound, Message: message}
}

// ForbiddenError reports an operation the actor may not perform.
func ForbiddenError(message string) *Error {
	return &Error{Kind: ErrForbidden, Message: message}
}

// AsError extracts the *Error from err, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
