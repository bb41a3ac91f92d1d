// Package apperrors defines the error taxonomy shared across the risk engine.
//
// Errors fall into a small set of categories that map onto distinct caller
// behavior: validation errors reject a request before any scoring happens,
// dependency errors put the engine on its fail-safe path, configuration
// errors abort startup, and not-found errors translate to transport-level
// NotFound codes.
package apperrors

import (
	"errors"
	"fmt"
)

// Code classifies an error into one of the engine's failure categories.
type Code string

const (
	CodeValidation    Code = "VALIDATION"
	CodeDependency    Code = "DEPENDENCY"
	CodeConfiguration Code = "CONFIGURATION"
	CodeNotFound      Code = "NOT_FOUND"
	CodeInternal      Code = "INTERNAL"
)

// Error is a coded error carrying an operator-facing message and an optional
// wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error without a cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of err, walking the wrap chain. Errors that carry
// no code report CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

func is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return is(err, CodeValidation) }

// IsDependency reports whether err is a dependency error.
func IsDependency(err error) bool { return is(err, CodeDependency) }

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return is(err, CodeConfiguration) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return is(err, CodeNotFound) }
