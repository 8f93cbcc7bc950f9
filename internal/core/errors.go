// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Pipeline stage errors
	ErrInsufficientData = &Error{Code: "INSUFFICIENT_DATA", Message: "aligned series below minimum length"}
	ErrDegenerateInput  = &Error{Code: "DEGENERATE_INPUT", Message: "regressor has zero variance"}
	ErrInvalidParameter = &Error{Code: "INVALID_PARAMETER", Message: "invalid or contradictory parameter"}
	ErrNotCointegrated  = &Error{Code: "NOT_COINTEGRATED", Message: "pair failed cointegration check"}

	// Data source errors
	ErrDataUnavailable = &Error{Code: "DATA_UNAVAILABLE", Message: "price source returned no usable data"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Storage errors
	ErrArchiveFailed = &Error{Code: "ARCHIVE_FAILED", Message: "archiving run result failed"}

	// Job errors
	ErrJobNotFound = &Error{Code: "JOB_NOT_FOUND", Message: "job not found"}
)
