package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports bad client input; rendered as 400.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError reports a uniqueness or state conflict (duplicate email, already enrolled).
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) error { return &ConflictError{msg: msg} }

func (err ConflictError) Error() string { return err.msg }

// AuthError reports a missing, invalid or expired credential.
type AuthError struct {
	msg string
}

func NewAuthError(msg string) error { return &AuthError{msg: msg} }

func (err AuthError) Error() string { return err.msg }

// ForbiddenError reports an authenticated identity acting outside its rights.
type ForbiddenError struct {
	msg string
}

func NewForbiddenError(msg string) error { return &ForbiddenError{msg: msg} }

func (err ForbiddenError) Error() string { return err.msg }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) error { return &NotFoundError{msg: msg} }

func (err NotFoundError) Error() string { return err.msg }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}
