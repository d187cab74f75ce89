package store

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-joute/internal/ports"
)

// RateLimitMiddleware paces store writes with a token bucket. Reads pass
// through so recomputations are never starved by a burst of score
// submissions. limit is writes per second; burst allows short spikes.
// A write whose wait would outlast ctx's deadline fails at once with a
// retryable ports.ErrRateLimited store error.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next Invoker) Invoker {
		return func(ctx context.Context, call Call, do func(context.Context) error) error {
			if call.Write {
				if err := limiter.Wait(ctx); err != nil {
					if ctx.Err() != nil {
						return fmt.Errorf("rate limit: %w", err)
					}
					return ports.NewStoreError(call.Collection, call.Operation,
						fmt.Errorf("%w: %w", ports.ErrRateLimited, err))
				}
			}
			return next(ctx, call, do)
		}
	}
}
