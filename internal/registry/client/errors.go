package client

import (
	"errors"
	"fmt"
)

// ErrorCategory is the normalized failure taxonomy for registry calls.
type ErrorCategory string

const (
	// ErrorTimeout indicates the registry took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the registry returned a malformed body
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates the credential was refused
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorOutage indicates the registry is unreachable or failing
	ErrorOutage ErrorCategory = "outage"

	// ErrorCircuitOpen indicates calls are suspended after repeated failures
	ErrorCircuitOpen ErrorCategory = "circuit_open"

	// ErrorCanceled indicates the caller abandoned the call. It says nothing
	// about registry health.
	ErrorCanceled ErrorCategory = "canceled"

	ErrorNotFound    ErrorCategory = "not_found"
	ErrorRateLimited ErrorCategory = "rate_limited"
	ErrorInternal    ErrorCategory = "internal"
)

// ProviderError wraps registry failures other than field rejections.
type ProviderError struct {
	Category   ErrorCategory
	Operation  string
	Message    string
	StatusCode int
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("registry %s [%s]: %s: %v", e.Operation, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("registry %s [%s]: %s", e.Operation, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError builds a ProviderError; the category decides retryability.
func NewProviderError(category ErrorCategory, operation, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout ||
		category == ErrorOutage ||
		category == ErrorRateLimited ||
		category == ErrorCircuitOpen ||
		category == ErrorBadData

	return &ProviderError{
		Category:   category,
		Operation:  operation,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}
