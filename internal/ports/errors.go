package ports

import (
	"errors"
	"fmt"
	"time"
)

// Common infrastructure errors that can occur while talking to the
// document store.
var (
	// ErrStoreUnavailable indicates that the store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrRateLimited indicates that the store rejected the request for rate reasons.
	ErrRateLimited = errors.New("rate limited")

	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = errors.New("operation timed out")

	// ErrConflict indicates a write conflict with a concurrent writer.
	ErrConflict = errors.New("write conflict")

	// ErrCorruptDocument indicates that a stored document could not be decoded.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

// StoreError represents an error from a store operation.
// It includes the collection and operation that failed.
type StoreError struct {
	// Collection is the logical collection, e.g. "scores" or "candidates".
	Collection string

	// Operation is the name of the operation that failed.
	Operation string

	// Err is the underlying error that occurred.
	Err error

	// RetryAfter indicates how long to wait before retrying, if known.
	RetryAfter *time.Duration
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	msg := fmt.Sprintf("store error: collection=%s, operation=%s, err=%v", e.Collection, e.Operation, e.Err)
	if e.RetryAfter != nil {
		msg += fmt.Sprintf(", retry_after=%v", *e.RetryAfter)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// IsRetryable returns true if the error is temporary and the operation
// can be retried.
func (e *StoreError) IsRetryable() bool {
	// Only transport-level failures are retryable; domain errors are not.
	return errors.Is(e.Err, ErrStoreUnavailable) ||
		errors.Is(e.Err, ErrRateLimited) ||
		errors.Is(e.Err, ErrTimeout) ||
		errors.Is(e.Err, ErrConflict)
}

// NewStoreError creates a new StoreError with the given details.
func NewStoreError(collection, operation string, err error) *StoreError {
	return &StoreError{
		Collection: collection,
		Operation:  operation,
		Err:        err,
	}
}

// IsRetryable reports whether err wraps a retryable *StoreError.
func IsRetryable(err error) bool {
	var se *StoreError
	return errors.As(err, &se) && se.IsRetryable()
}

// ConfigError names the configuration key that failed validation.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
