package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during scoring and qualification.
var (
	// ErrInvalidScoreValue indicates that a raw criterion value is outside
	// the permitted set for the round's kind.
	ErrInvalidScoreValue = errors.New("invalid score value")

	// ErrIncompleteRound indicates that a caller required strict completeness
	// and at least one authorized juror has not scored every active candidate.
	ErrIncompleteRound = errors.New("round is incomplete")

	// ErrInvalidQuota indicates that a round's advancement quota is neither a
	// positive integer nor ALL.
	ErrInvalidQuota = errors.New("invalid quota configuration")

	// ErrDuplicateScoreRecord indicates a second write for an existing
	// (candidate, juror, round) key on a round that disallows overwrite.
	ErrDuplicateScoreRecord = errors.New("duplicate score record")

	// ErrNotFound indicates that a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPartition indicates that a manual qualification partition is
	// not disjoint or does not match the round's quota.
	ErrInvalidPartition = errors.New("invalid qualification partition")

	// ErrNoChair indicates that an operation needs the chair juror and none exists.
	ErrNoChair = errors.New("no chair juror")

	// ErrUnauthorizedJuror indicates that a juror submitted a score for a
	// round they are not authorized on.
	ErrUnauthorizedJuror = errors.New("juror not authorized on round")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ScoreValueError describes a rejected raw criterion value.
type ScoreValueError struct {
	// Kind is the round kind the value was checked against.
	Kind RoundKind

	// Criterion names the offending criterion ("fond" or "forme").
	Criterion string

	// Raw is the value as submitted.
	Raw string
}

// Error implements the error interface for ScoreValueError.
func (e *ScoreValueError) Error() string {
	if e.Criterion == "" {
		return fmt.Sprintf("invalid score value: kind=%s, raw=%q", e.Kind, e.Raw)
	}
	return fmt.Sprintf("invalid score value: kind=%s, criterion=%s, raw=%q", e.Kind, e.Criterion, e.Raw)
}

// Unwrap returns ErrInvalidScoreValue so callers can match with errors.Is.
func (e *ScoreValueError) Unwrap() error { return ErrInvalidScoreValue }

// RoundError represents an error raised while operating on a specific round.
// It provides context about which round and operation caused the error.
type RoundError struct {
	// RoundID is the round that was involved in the failed operation.
	RoundID string

	// Operation describes what was being performed when the error occurred.
	Operation string

	// Err is the underlying error that caused the operation to fail.
	Err error
}

// Error implements the error interface for RoundError.
func (e *RoundError) Error() string {
	return fmt.Sprintf("round error: operation=%s, round=%s, err=%v", e.Operation, e.RoundID, e.Err)
}

// Unwrap returns the underlying error.
func (e *RoundError) Unwrap() error { return e.Err }

// NewRoundError creates a new RoundError with the given details.
func NewRoundError(roundID, operation string, err error) *RoundError {
	return &RoundError{
		RoundID:   roundID,
		Operation: operation,
		Err:       err,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// AddErrorf formats and adds a new error message.
func (e *ValidationError) AddErrorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
