// Package errors provides structured error handling for the application.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for HTTP mapping and logging
type ErrorCode string

const (
	// Client errors (4xx)
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound        ErrorCode = "NOT_FOUND"

	// Server errors (5xx)
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// Degraded is never surfaced as an HTTP error; callers translate it
	// into a warning field with a fallback result.
	CodeDegraded ErrorCode = "DEGRADED"
)

// AppError carries a code, a user-facing message and an optional cause
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the HTTP status for the error code
func (e *AppError) StatusCode() int {
	switch e.Code {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// WithCause attaches a cause error
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// NewInvalidArgument creates a caller-error with a 400 mapping
func NewInvalidArgument(message string) *AppError {
	return &AppError{Code: CodeInvalidArgument, Message: message}
}

// NewNotFound creates a missing-resource error with a 404 mapping
func NewNotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewInternal creates an unexpected-failure error with a 500 mapping
func NewInternal(message string) *AppError {
	if message == "" {
		message = "an unexpected error occurred"
	}
	return &AppError{Code: CodeInternal, Message: message}
}

// NewDegraded marks an optional collaborator as unreachable
func NewDegraded(service string, cause error) *AppError {
	return &AppError{
		Code:    CodeDegraded,
		Message: fmt.Sprintf("%s unavailable", service),
		Cause:   cause,
	}
}

// Wrap converts err into an internal AppError unless it already is one
func Wrap(err error, message string) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternal(message).WithCause(err)
}

// Is reports whether err carries the given error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code, defaulting to internal
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeInternal
}
