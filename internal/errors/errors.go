// Package errors provides error types and handling for sandboxctl.
// Errors fall into three buckets: fatal (abort the pipeline, exit 1),
// recoverable (warn and continue), and user-cancelled (exit 0).
package errors

import (
	"errors"
	"fmt"
)

// AppError is an application error with a machine-readable code.
type AppError struct {
	// Code is an error code string for programmatic handling.
	Code string
	// Message is a user-friendly error message.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to match AppErrors by code.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return e.Code != "" && e.Code == t.Code
	}
	return false
}

// Predefined error codes.
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	ErrCodeCancelled     = "CANCELLED"
	ErrCodePrerequisite  = "PREREQUISITE_FAILED"
	ErrCodeCloud         = "CLOUD_ERROR"
	ErrCodeTimeout       = "TIMEOUT"
	ErrCodeInvalidConfig = "INVALID_CONFIG"
)

// ErrCancelled is the sentinel for a user-cancelled operation. Cancelling
// at a prompt is a valid outcome, not a failure: commands map it to exit
// code 0.
var ErrCancelled = &AppError{Code: ErrCodeCancelled, Message: "cancelled by user"}

// ErrNotFound creates a not-found error.
func ErrNotFound(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message, Cause: cause}
}

// ErrPrerequisite creates a prerequisite-check error.
func ErrPrerequisite(message string, cause error) *AppError {
	return &AppError{Code: ErrCodePrerequisite, Message: message, Cause: cause}
}

// ErrCloud wraps a provider error. The provider's own error text is kept
// so the operator sees the underlying failure.
func ErrCloud(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeCloud, Message: message, Cause: cause}
}

// ErrInvalidConfig creates a configuration error.
func ErrInvalidConfig(message string, cause error) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message, Cause: cause}
}

// IsCancelled reports whether err is a user cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeNotFound
	}
	return false
}

// GetErrorCode extracts the error code from an error. Returns empty
// string if the error is not an AppError.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
