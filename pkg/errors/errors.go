// Package errors defines the unified error type returned by chat model
// and embedding providers. Provider-specific failures are mapped to these
// standard types so callers can branch on error class instead of parsing
// provider payloads.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// LLMError is a standardized provider error. It carries everything needed
// for error handling and logging without exposing provider wire formats.
type LLMError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Type       string `json:"type"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Retryable  bool   `json:"-"`
}

// Error implements the error interface.
func (e *LLMError) Error() string {
	return fmt.Sprintf("%s: %s: %s (model=%s, status=%d)",
		e.Provider, e.Type, e.Message, e.Model, e.StatusCode)
}

// Common error types as constants for consistency.
const (
	TypeAuthentication     = "authentication_error"
	TypeRateLimit          = "rate_limit_error"
	TypeInvalidRequest     = "invalid_request_error"
	TypeNotFound           = "not_found_error"
	TypeTimeout            = "timeout_error"
	TypeServiceUnavailable = "service_unavailable_error"
	TypeInternalError      = "internal_error"
	TypeContextLength      = "context_length_exceeded"
	TypeContentPolicy      = "content_policy_violation"
)

func newError(errType string, statusCode int, retryable bool, provider, model, message string) *LLMError {
	return &LLMError{
		StatusCode: statusCode,
		Message:    message,
		Type:       errType,
		Provider:   provider,
		Model:      model,
		Retryable:  retryable,
	}
}

// NewAuthenticationError creates an authentication error (401).
func NewAuthenticationError(provider, model, message string) *LLMError {
	return newError(TypeAuthentication, http.StatusUnauthorized, false, provider, model, message)
}

// NewRateLimitError creates a rate limit error (429).
func NewRateLimitError(provider, model, message string) *LLMError {
	return newError(TypeRateLimit, http.StatusTooManyRequests, true, provider, model, message)
}

// NewInvalidRequestError creates an invalid request error (400).
func NewInvalidRequestError(provider, model, message string) *LLMError {
	return newError(TypeInvalidRequest, http.StatusBadRequest, false, provider, model, message)
}

// NewNotFoundError creates a not found error (404).
func NewNotFoundError(provider, model, message string) *LLMError {
	return newError(TypeNotFound, http.StatusNotFound, false, provider, model, message)
}

// NewTimeoutError creates a timeout error (408).
func NewTimeoutError(provider, model, message string) *LLMError {
	return newError(TypeTimeout, http.StatusRequestTimeout, true, provider, model, message)
}

// NewServiceUnavailableError creates a service unavailable error (503).
func NewServiceUnavailableError(provider, model, message string) *LLMError {
	return newError(TypeServiceUnavailable, http.StatusServiceUnavailable, true, provider, model, message)
}

// NewInternalError creates an internal server error (500).
func NewInternalError(provider, model, message string) *LLMError {
	return newError(TypeInternalError, http.StatusInternalServerError, false, provider, model, message)
}

// FromHTTPStatus maps an HTTP status from a provider response to the
// matching LLMError constructor. Unknown statuses map to internal errors.
func FromHTTPStatus(statusCode int, provider, model, message string) *LLMError {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewAuthenticationError(provider, model, message)
	case http.StatusTooManyRequests:
		return NewRateLimitError(provider, model, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewInvalidRequestError(provider, model, message)
	case http.StatusNotFound:
		return NewNotFoundError(provider, model, message)
	case http.StatusRequestTimeout:
		return NewTimeoutError(provider, model, message)
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return NewServiceUnavailableError(provider, model, message)
	default:
		err := NewInternalError(provider, model, message)
		if statusCode > 0 {
			err.StatusCode = statusCode
			err.Retryable = statusCode >= 500
		}
		return err
	}
}

// IsRetryable reports whether err wraps an LLMError that is safe to retry.
func IsRetryable(err error) bool {
	var llmErr *LLMError
	if stderrors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}
