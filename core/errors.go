package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

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

// PermissionError indicates that the authenticated caller is not allowed to
// perform the requested operation.
type PermissionError struct {
	Err    error
	Fields []FieldError
}

func NewPermissionError(err error, flds ...FieldError) error {
	return &PermissionError{err, flds}
}

func (err PermissionError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// AuthenticationError indicates a failed credentials check. The top-level
// message stays uniform regardless of which credential was wrong; the field
// detail carries the cause.
type AuthenticationError struct {
	Err    error
	Fields []FieldError
}

func NewAuthenticationError(err error, flds ...FieldError) error {
	return &AuthenticationError{err, flds}
}

func (err AuthenticationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

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
