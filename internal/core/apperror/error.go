// Package apperror provides structured error handling for the engine.
// All business errors are reported as *AppError so callers can branch on
// the error class without string matching.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by recovery semantics.
const (
	// CodeValidation: bad input, fully recoverable by correcting the request.
	CodeValidation = "VALIDATION_ERROR"

	// CodeNotFound: a referenced entity does not exist.
	CodeNotFound = "NOT_FOUND"

	// CodeConflict: illegal state transition or duplicate, no mutation happened.
	CodeConflict = "CONFLICT"

	// CodeResource: transient infrastructure failure (lock timeout, storage
	// unavailable). Safe to retry at the caller.
	CodeResource = "RESOURCE_ERROR"

	// CodeInternal: unexpected failure, details hidden from clients.
	CodeInternal = "INTERNAL_ERROR"

	// CodeUnauthorized: missing or invalid credentials on the HTTP surface.
	CodeUnauthorized = "UNAUTHORIZED"
)

// AppError is the standard error type for the engine.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field names, ids, line numbers)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404).
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConflict creates a conflict error (409). Used for rejected status
// transitions; the document is left untouched.
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewResource creates a transient infrastructure error (503).
// The operation may be retried; a sequence value reserved before the
// failure is permanently consumed.
func NewResource(message string, err error) *AppError {
	return &AppError{
		Code:       CodeResource,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// --- Helpers ---

// AsAppError extracts AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the appropriate HTTP status for any error.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsValidation checks if error is CodeValidation.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsNotFound checks if error is CodeNotFound.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsConflict checks if error is CodeConflict.
func IsConflict(err error) bool { return hasCode(err, CodeConflict) }

// IsResource checks if error is CodeResource (retryable).
func IsResource(err error) bool { return hasCode(err, CodeResource) }
