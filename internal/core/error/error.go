package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// UpstreamErrorMessage describes failures of Gemini, TTS or the classifier.
	UpstreamErrorMessage = "upstream service failed"
	// InvalidRequestMessage describes a malformed inbound request.
	InvalidRequestMessage = "invalid request"
)

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// BadRequest marks err as a client mistake.
func BadRequest(err error) *AppError {
	return New(err, http.StatusBadRequest, InvalidRequestMessage)
}

// WrapUpstream tags a failed call to an external service.
func WrapUpstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return New(fmt.Errorf("%s: %w", service, err), http.StatusBadGateway, UpstreamErrorMessage)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the safe message carried by err.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return SystemErrorMessage
}
