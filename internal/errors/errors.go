// Package errors defines the typed service errors exchanged between layers
// and their mapping onto HTTP status codes.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeInvalidToken  ErrorCode = "INVALID_TOKEN"
	CodeValidation    ErrorCode = "VALIDATION"
	CodeInternal      ErrorCode = "INTERNAL"
	CodeRateLimited   ErrorCode = "RATE_LIMITED"
	CodeConfiguration ErrorCode = "CONFIGURATION"
)

// ServiceError is a fault with an HTTP status and a client-safe message.
// The wrapped error, if any, is for server-side logs only.
type ServiceError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Details    map[string]interface{}
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails attaches a key/value detail and returns the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NotFound creates a 404 error.
func NotFound(message string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *ServiceError {
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// InvalidToken creates a 401 error for token verification failures.
func InvalidToken(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidToken,
		Message:    "Invalid authentication token",
		HTTPStatus: http.StatusUnauthorized,
		Err:        err,
	}
}

// Validation creates a 400 error.
func Validation(message string) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// Internal creates a 500 error wrapping a cause.
func Internal(message string, err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// RateLimitExceeded creates a 429 error.
func RateLimitExceeded(message string) *ServiceError {
	return &ServiceError{Code: CodeRateLimited, Message: message, HTTPStatus: http.StatusTooManyRequests}
}

// Configuration creates a startup configuration error. It carries no HTTP
// status; builder misuse is fatal before the server exists.
func Configuration(message string) *ServiceError {
	return &ServiceError{Code: CodeConfiguration, Message: message, HTTPStatus: http.StatusInternalServerError}
}

// GetServiceError extracts a *ServiceError from err's chain, or nil.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}
