// Package apperr defines the error taxonomy shared by services and transports.
package apperr

import (
	"errors"
	"net/http"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeValidation   Code = "VALIDATION"
	CodeInternal     Code = "INTERNAL"
)

// Error is the domain error type.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }
func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Conflict(message string) *Error     { return New(CodeConflict, message) }
func Validation(message string) *Error   { return New(CodeValidation, message) }

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries code anywhere in its chain.
func HasCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// HTTPStatus maps err to a response status. authenticated distinguishes a
// missing identity (401) from a missing role (403).
func HTTPStatus(err error, authenticated bool) int {
	switch CodeOf(err) {
	case CodeUnauthorized:
		if authenticated {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
