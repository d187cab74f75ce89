package store

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

// flakyStore fails ListRounds with queued errors before delegating.
type flakyStore struct {
	*MemoryStore
	errs  []error
	calls int
}

func (f *flakyStore) ListRounds(ctx context.Context) ([]domain.Round, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.MemoryStore.ListRounds(ctx)
}

func unavailable() error {
	return ports.NewStoreError(ports.CollectionRounds, "list_rounds", ports.ErrStoreUnavailable)
}

func TestRetryMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{name: "success on first attempt", wantCalls: 1},
		{name: "retries transient errors", errs: []error{unavailable(), unavailable()}, wantCalls: 3},
		{name: "gives up after max retries", errs: []error{unavailable(), unavailable(), unavailable(), unavailable()}, wantCalls: 3, wantErr: ports.ErrStoreUnavailable},
		{name: "domain errors are not retried", errs: []error{domain.ErrNotFound}, wantCalls: 1, wantErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given a store that fails with the queued errors
			flaky := &flakyStore{MemoryStore: NewMemoryStore(), errs: tt.errs}
			s := Wrap(flaky, RetryMiddleware(2, time.Millisecond, 5*time.Millisecond))

			// When listing rounds
			_, err := s.ListRounds(context.Background())

			// Then the call count reflects the retry policy
			assert.Equal(t, tt.wantCalls, flaky.calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRetryMiddleware_BackoffWithSynctest(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		retryAfter := 3 * time.Second
		hinted := ports.NewStoreError(ports.CollectionRounds, "list_rounds", ports.ErrRateLimited)
		hinted.RetryAfter = &retryAfter

		flaky := &flakyStore{MemoryStore: NewMemoryStore(), errs: []error{unavailable(), hinted}}
		s := Wrap(flaky, RetryMiddleware(3, time.Second, 10*time.Second))

		start := time.Now()
		_, err := s.ListRounds(context.Background())
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Equal(t, 3, flaky.calls)
		// First backoff is 1s ±25%, the second honours the 3s hint.
		assert.GreaterOrEqual(t, elapsed, 750*time.Millisecond+retryAfter)
		assert.LessOrEqual(t, elapsed, 1250*time.Millisecond+retryAfter)
	})
}

func TestRetryMiddleware_ContextCancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		flaky := &flakyStore{MemoryStore: NewMemoryStore(), errs: []error{unavailable(), unavailable()}}
		s := Wrap(flaky, RetryMiddleware(5, time.Minute, time.Hour))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, err := s.ListRounds(ctx)
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
		assert.Equal(t, 1, flaky.calls)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx := context.Background()
		s := Wrap(NewMemoryStore(), RateLimitMiddleware(1, 1))
		require.NoError(t, s.PutRound(ctx, domain.Round{ID: "r1", Sequence: 1, Kind: domain.RoundNotation, Quota: domain.QuotaAll}))

		start := time.Now()
		for range 3 {
			_, err := s.ListRounds(ctx)
			require.NoError(t, err)
		}
		assert.Zero(t, time.Since(start), "reads are not paced")

		require.NoError(t, s.PutScoreRecord(ctx, domain.ScoreRecord{CandidateID: "c1", JurorID: "j1", RoundID: "r1"}))
		require.NoError(t, s.PutScoreRecord(ctx, domain.ScoreRecord{CandidateID: "c2", JurorID: "j1", RoundID: "r1"}))
		assert.GreaterOrEqual(t, time.Since(start), 2*time.Second)
	})
}

func TestRateLimitMiddleware_ContextCancelled(t *testing.T) {
	s := Wrap(NewMemoryStore(), RateLimitMiddleware(0.001, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.PutDuel(ctx, domain.DuelPairing{ID: "d1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestRateLimitMiddleware_WaitPastDeadline(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// Given a limiter whose only token is spent
		s := Wrap(NewMemoryStore(), RateLimitMiddleware(1, 1))
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		defer cancel()
		require.NoError(t, s.PutRound(ctx, domain.Round{ID: "r1", Sequence: 1, Kind: domain.RoundNotation, Quota: domain.QuotaAll}))

		// When the next write could only start after the deadline
		start := time.Now()
		err := s.PutRound(ctx, domain.Round{ID: "r2", Sequence: 2, Kind: domain.RoundNotation, Quota: domain.QuotaAll})

		// Then it fails at once with a retryable rate-limit error
		require.ErrorIs(t, err, ports.ErrRateLimited)
		assert.True(t, ports.IsRetryable(err))
		var se *ports.StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, ports.CollectionRounds, se.Collection)
		assert.Equal(t, "put_round", se.Operation)
		assert.Zero(t, time.Since(start))
	})
}
