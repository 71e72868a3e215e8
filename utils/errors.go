package utils

import (
	"fmt"
	"net/http"
)

// APIError carries the HTTP status and the client-facing message of a failure.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

func NewError(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func BadRequest(message string) *APIError {
	return NewError(http.StatusBadRequest, message)
}

func Unauthorized(message string) *APIError {
	return NewError(http.StatusUnauthorized, message)
}

func Forbidden(message string) *APIError {
	return NewError(http.StatusForbidden, message)
}

func NotFound(message string) *APIError {
	return NewError(http.StatusNotFound, message)
}

// BadGateway wraps a failure of a third-party service.
func BadGateway(message string, err error) *APIError {
	return &APIError{Status: http.StatusBadGateway, Message: message, Err: err}
}

// Internal wraps an unexpected failure with a generic message.
func Internal(message string, err error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Message: message, Err: err}
}

var ErrAccessDenied = Forbidden("Not authorized to access this resource")
