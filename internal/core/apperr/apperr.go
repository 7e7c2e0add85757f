package apperr

import (
	"errors"
	"strings"
)

// Error kinds shared by every feature. Features wrap them with fmt.Errorf("...: %w")
// and the HTTP layer maps them to status codes in one place.
var (
	// ErrValidation is returned when input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateKey is returned when a unique constraint is violated.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the principal may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned when no valid principal is present.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInternal is returned for unexpected failures.
	ErrInternal = errors.New("internal error")
)

// ValidationError carries field-level messages and matches ErrValidation.
type ValidationError struct {
	// Fields lists one human message per offending field.
	Fields []string
}

// NewValidation builds a ValidationError from field messages.
func NewValidation(fields ...string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Fields, "; ")
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Fields extracts field messages from err, if it wraps a ValidationError.
func Fields(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// Error pairs an error kind with a message that is safe to show to clients.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// NotFound returns an ErrNotFound with a public message.
func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Msg: msg} }

// Forbidden returns an ErrForbidden with a public message.
func Forbidden(msg string) error { return &Error{Kind: ErrForbidden, Msg: msg} }

// Unauthorized returns an ErrUnauthorized with a public message.
func Unauthorized(msg string) error { return &Error{Kind: ErrUnauthorized, Msg: msg} }

// Duplicate returns an ErrDuplicateKey with a public message.
func Duplicate(msg string) error { return &Error{Kind: ErrDuplicateKey, Msg: msg} }

// Invalid returns an ErrValidation with a public message and no field list.
func Invalid(msg string) error { return &Error{Kind: ErrValidation, Msg: msg} }

// Message returns the public message carried by err, or "".
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
