package store

import (
	"context"

	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

// Call describes one store operation passing through the middleware chain.
type Call struct {
	Collection string
	Operation  string
	Write      bool
}

// Invoker runs do for call. Middleware may run do several times, delay it
// or refuse it.
type Invoker func(ctx context.Context, call Call, do func(context.Context) error) error

// Middleware decorates an Invoker.
type Middleware func(next Invoker) Invoker

var (
	_ ports.ContestStore = (*GuardedStore)(nil)
	_ ports.ChangeFeed   = (*GuardedStore)(nil)
)

// GuardedStore routes every operation of an inner store through a
// middleware chain such as retry and rate limiting.
type GuardedStore struct {
	inner  ports.ContestStore
	invoke Invoker
}

// Wrap applies middlewares to inner. The first middleware is outermost.
func Wrap(inner ports.ContestStore, middlewares ...Middleware) *GuardedStore {
	invoke := Invoker(func(ctx context.Context, _ Call, do func(context.Context) error) error {
		return do(ctx)
	})
	for i := len(middlewares) - 1; i >= 0; i-- {
		invoke = middlewares[i](invoke)
	}
	return &GuardedStore{inner: inner, invoke: invoke}
}

// Subscribe forwards to the inner store's feed. Stores without one never
// emit events.
func (g *GuardedStore) Subscribe(fn func(ports.ChangeEvent)) (cancel func()) {
	if feed, ok := g.inner.(ports.ChangeFeed); ok {
		return feed.Subscribe(fn)
	}
	return func() {}
}

func read[T any](ctx context.Context, g *GuardedStore, collection, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := g.invoke(ctx, Call{Collection: collection, Operation: op}, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

func (g *GuardedStore) write(ctx context.Context, collection, op string, fn func(context.Context) error) error {
	return g.invoke(ctx, Call{Collection: collection, Operation: op, Write: true}, fn)
}

func (g *GuardedStore) ListCandidates(ctx context.Context, roundID string) ([]domain.Candidate, error) {
	return read(ctx, g, ports.CollectionCandidates, "list_candidates", func(ctx context.Context) ([]domain.Candidate, error) {
		return g.inner.ListCandidates(ctx, roundID)
	})
}

func (g *GuardedStore) ListScoreRecords(ctx context.Context, roundID, candidateID string) ([]domain.ScoreRecord, error) {
	return read(ctx, g, ports.CollectionScores, "list_score_records", func(ctx context.Context) ([]domain.ScoreRecord, error) {
		return g.inner.ListScoreRecords(ctx, roundID, candidateID)
	})
}

func (g *GuardedStore) ListJurorsOnRound(ctx context.Context, roundID string) ([]domain.Juror, error) {
	return read(ctx, g, ports.CollectionJurors, "list_jurors_on_round", func(ctx context.Context) ([]domain.Juror, error) {
		return g.inner.ListJurorsOnRound(ctx, roundID)
	})
}

func (g *GuardedStore) ListJurors(ctx context.Context) ([]domain.Juror, error) {
	return read(ctx, g, ports.CollectionJurors, "list_jurors", g.inner.ListJurors)
}

func (g *GuardedStore) GetRound(ctx context.Context, roundID string) (domain.Round, error) {
	return read(ctx, g, ports.CollectionRounds, "get_round", func(ctx context.Context) (domain.Round, error) {
		return g.inner.GetRound(ctx, roundID)
	})
}

func (g *GuardedStore) ListRounds(ctx context.Context) ([]domain.Round, error) {
	return read(ctx, g, ports.CollectionRounds, "list_rounds", g.inner.ListRounds)
}

func (g *GuardedStore) ListDuels(ctx context.Context, roundID string) ([]domain.DuelPairing, error) {
	return read(ctx, g, ports.CollectionDuels, "list_duels", func(ctx context.Context) ([]domain.DuelPairing, error) {
		return g.inner.ListDuels(ctx, roundID)
	})
}

func (g *GuardedStore) ListDisplayOverrides(ctx context.Context, roundID string) (map[string]float64, error) {
	return read(ctx, g, ports.CollectionOverrides, "list_display_overrides", func(ctx context.Context) (map[string]float64, error) {
		return g.inner.ListDisplayOverrides(ctx, roundID)
	})
}

func (g *GuardedStore) PutScoreRecord(ctx context.Context, rec domain.ScoreRecord) error {
	return g.write(ctx, ports.CollectionScores, "put_score_record", func(ctx context.Context) error {
		return g.inner.PutScoreRecord(ctx, rec)
	})
}

func (g *GuardedStore) PutCandidate(ctx context.Context, c domain.Candidate) error {
	return g.write(ctx, ports.CollectionCandidates, "put_candidate", func(ctx context.Context) error {
		return g.inner.PutCandidate(ctx, c)
	})
}

func (g *GuardedStore) UpdateCandidates(ctx context.Context, cs ...domain.Candidate) error {
	return g.write(ctx, ports.CollectionCandidates, "update_candidates", func(ctx context.Context) error {
		return g.inner.UpdateCandidates(ctx, cs...)
	})
}

func (g *GuardedStore) PutJuror(ctx context.Context, j domain.Juror) error {
	return g.write(ctx, ports.CollectionJurors, "put_juror", func(ctx context.Context) error {
		return g.inner.PutJuror(ctx, j)
	})
}

func (g *GuardedStore) DeleteJuror(ctx context.Context, jurorID string) error {
	return g.write(ctx, ports.CollectionJurors, "delete_juror", func(ctx context.Context) error {
		return g.inner.DeleteJuror(ctx, jurorID)
	})
}

func (g *GuardedStore) PutRound(ctx context.Context, r domain.Round) error {
	return g.write(ctx, ports.CollectionRounds, "put_round", func(ctx context.Context) error {
		return g.inner.PutRound(ctx, r)
	})
}

func (g *GuardedStore) PutDuel(ctx context.Context, d domain.DuelPairing) error {
	return g.write(ctx, ports.CollectionDuels, "put_duel", func(ctx context.Context) error {
		return g.inner.PutDuel(ctx, d)
	})
}

func (g *GuardedStore) SetDisplayOverride(ctx context.Context, roundID, candidateID string, score float64) error {
	return g.write(ctx, ports.CollectionOverrides, "set_display_override", func(ctx context.Context) error {
		return g.inner.SetDisplayOverride(ctx, roundID, candidateID, score)
	})
}

func (g *GuardedStore) AppendActivation(ctx context.Context, a domain.Activation) (bool, error) {
	var added bool
	err := g.write(ctx, ports.CollectionActivations, "append_activation", func(ctx context.Context) error {
		var err error
		added, err = g.inner.AppendActivation(ctx, a)
		return err
	})
	return added, err
}

func (g *GuardedStore) ListActivations(ctx context.Context) ([]domain.Activation, error) {
	return read(ctx, g, ports.CollectionActivations, "list_activations", g.inner.ListActivations)
}
