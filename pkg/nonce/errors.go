package nonce

import (
	"errors"
	"fmt"
)

// Code classifies why a token failed validation. The codes are part of
// the API surface: callers surface them to operators so replay attempts
// stay distinguishable from policy refusals.
type Code string

const (
	// CodeUnknown means the token was never issued by this manager (or
	// was already swept).
	CodeUnknown Code = "UNKNOWN"

	// CodeExpired means the token outlived its TTL before consumption.
	CodeExpired Code = "EXPIRED"

	// CodeAlreadyConsumed means the token was already used once.
	CodeAlreadyConsumed Code = "ALREADY_CONSUMED"
)

// ValidationError reports a failed ValidateAndConsume with its code.
type ValidationError struct {
	Code Code
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("nonce validation failed: %s", e.Code)
}

// NewValidationError creates a ValidationError with the given code.
func NewValidationError(code Code) *ValidationError {
	return &ValidationError{Code: code}
}

// CodeOf extracts the validation code from an error chain. The second
// return is false when err is not a nonce validation failure.
func CodeOf(err error) (Code, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Code, true
	}
	return "", false
}

// StoreError represents a failure in a nonce store backend.
type StoreError struct {
	Backend   string // store backend type ("sqlite", "memory")
	Operation string // operation that failed ("insert", "consume", "sweep")
	Cause     error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("nonce store error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError.
func NewStoreError(backend, operation string, cause error) *StoreError {
	return &StoreError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}
