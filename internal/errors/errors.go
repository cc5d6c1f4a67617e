// Package errors provides structured service errors with HTTP status mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of service error.
type ErrorCode string

const (
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInvalidToken      ErrorCode = "INVALID_TOKEN"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
	CodeUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
)

// ServiceError is the canonical error surfaced at the API boundary.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// WithDetails attaches a key/value pair to the error and returns it.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code ErrorCode, message string, status int, cause error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
		cause:      cause,
	}
}

// InvalidInput creates a 400 error for malformed requests.
func InvalidInput(message string) *ServiceError {
	return newError(CodeInvalidInput, message, http.StatusBadRequest, nil)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *ServiceError {
	return newError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *ServiceError {
	return newError(CodeForbidden, message, http.StatusForbidden, nil)
}

// NotFound creates a 404 error for a missing resource.
func NotFound(resource, id string) *ServiceError {
	return newError(CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id), http.StatusNotFound, nil)
}

// Conflict creates a 409 error.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, message, http.StatusConflict, nil)
}

// InvalidToken creates a 401 error for token validation failures.
func InvalidToken(cause error) *ServiceError {
	return newError(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized, cause)
}

// RateLimitExceeded creates a 429 error.
func RateLimitExceeded(limit int, window string) *ServiceError {
	e := newError(CodeRateLimitExceeded, "Rate limit exceeded", http.StatusTooManyRequests, nil)
	e.WithDetails("limit", limit)
	e.WithDetails("window", window)
	return e
}

// Internal creates a 500 error wrapping an unexpected failure.
func Internal(message string, cause error) *ServiceError {
	return newError(CodeInternal, message, http.StatusInternalServerError, cause)
}

// Unavailable creates a 503 error.
func Unavailable(message string) *ServiceError {
	return newError(CodeUnavailable, message, http.StatusServiceUnavailable, nil)
}

// GetServiceError extracts a *ServiceError from err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}
