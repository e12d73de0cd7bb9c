// Package apperr defines the error kinds the service layer returns and the
// HTTP layer translates into status codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidConversion Kind = "INVALID_CONVERSION"
	KindValidation        Kind = "VALIDATION_ERROR"
	KindConfiguration     Kind = "CONFIGURATION_ERROR"
	KindConcurrency       Kind = "CONCURRENCY_CONFLICT"
	KindForbidden         Kind = "FORBIDDEN"
	KindUnauthorized      Kind = "UNAUTHORIZED"
)

// FieldError is a single invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports a missing entity, e.g. NotFound("document", id).
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// InvalidConversion reports a disallowed document conversion.
func InvalidConversion(from, to string) *Error {
	return &Error{Kind: KindInvalidConversion, Message: fmt.Sprintf("cannot convert %s to %s", from, to)}
}

// Validation reports invalid input with optional per-field detail.
func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Configuration reports a missing or unusable collaborator configuration.
func Configuration(msg string) *Error {
	return &Error{Kind: KindConfiguration, Message: msg}
}

// Concurrency reports a lost update or identifier collision.
func Concurrency(msg string, err error) *Error {
	return &Error{Kind: KindConcurrency, Message: msg, Err: err}
}

// Forbidden reports an operation the caller's role does not allow.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// Unauthorized reports a missing or invalid session.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
