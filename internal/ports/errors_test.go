package ports

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-joute/internal/domain"
)

// TestStoreError tests the functionality of the StoreError error type.
// It covers error creation, message formatting, and retryable logic.
func TestStoreError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := NewStoreError("scores", "PutScoreRecord", ErrStoreUnavailable)

		assert.Equal(t, "store error: collection=scores, operation=PutScoreRecord, err=store unavailable", err.Error())
		assert.Equal(t, "scores", err.Collection)
		assert.True(t, errors.Is(err, ErrStoreUnavailable))
	})

	t.Run("with retry after", func(t *testing.T) {
		retryAfter := 2 * time.Second
		err := &StoreError{
			Collection: "candidates",
			Operation:  "UpdateCandidate",
			Err:        ErrRateLimited,
			RetryAfter: &retryAfter,
		}

		assert.Contains(t, err.Error(), "retry_after=2s")
	})

	t.Run("retryable errors", func(t *testing.T) {
		for _, baseErr := range []error{ErrStoreUnavailable, ErrRateLimited, ErrTimeout, ErrConflict} {
			err := NewStoreError("scores", "Test", baseErr)
			assert.True(t, err.IsRetryable(), "%v should be retryable", baseErr)
			assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", err)))
		}

		for _, baseErr := range []error{ErrCorruptDocument, domain.ErrDuplicateScoreRecord, domain.ErrNotFound} {
			err := NewStoreError("scores", "Test", baseErr)
			assert.False(t, err.IsRetryable(), "%v should not be retryable", baseErr)
		}

		assert.False(t, IsRetryable(ErrTimeout), "bare sentinel is not a store error")
	})
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("rounds[0].quota", domain.ErrInvalidQuota)

	assert.Equal(t, "config error: key=rounds[0].quota, err=invalid quota configuration", err.Error())
	assert.True(t, errors.Is(err, domain.ErrInvalidQuota))
}
