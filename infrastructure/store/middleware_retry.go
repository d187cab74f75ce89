package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ahrav/go-joute/internal/ports"
)

// RetryMiddleware retries operations that fail with a retryable
// *ports.StoreError, backing off exponentially with jitter. A RetryAfter
// hint on the error overrides the computed delay, capped at maxDelay.
// Domain errors such as domain.ErrDuplicateScoreRecord are returned at once.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, call Call, do func(context.Context) error) error {
			var lastErr error

			for attempt := 0; attempt <= maxRetries; attempt++ {
				err := next(ctx, call, do)
				if err == nil {
					return nil
				}
				lastErr = err

				if !ports.IsRetryable(err) || ctx.Err() != nil || attempt == maxRetries {
					break
				}

				delay := backoff(attempt, baseDelay, maxDelay)
				var se *ports.StoreError
				if errors.As(err, &se) && se.RetryAfter != nil {
					delay = min(*se.RetryAfter, maxDelay)
				}

				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}

			if !ports.IsRetryable(lastErr) {
				return lastErr
			}
			return fmt.Errorf("%s failed after %d attempts: %w", call.Operation, maxRetries+1, lastErr)
		}
	}
}

func backoff(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	// #nosec G115 - attempt is bounded between 0 and 30
	delay := baseDelay * time.Duration(1<<uint(attempt))

	// Jitter of ±25%.
	// #nosec G404 - Using weak RNG is acceptable for jitter calculation
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)

	return min(delay, maxDelay)
}
