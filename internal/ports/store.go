// Package ports defines the core interfaces that form the contract between
// the scoring engine and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"github.com/ahrav/go-joute/internal/domain"
)

// ContestReader exposes the read primitives the engine consumes.
// Implementations return domain.ErrNotFound (possibly wrapped) for
// missing entities and must be safe for concurrent use.
type ContestReader interface {
	// ListCandidates returns the candidates assigned to roundID, or every
	// candidate when roundID is empty, in creation order.
	ListCandidates(ctx context.Context, roundID string) ([]domain.Candidate, error)

	// ListScoreRecords returns the round's records, restricted to one
	// candidate when candidateID is non-empty.
	ListScoreRecords(ctx context.Context, roundID, candidateID string) ([]domain.ScoreRecord, error)

	// ListJurorsOnRound returns the jurors allowed to score roundID. On a
	// repêchage round this includes the chair.
	ListJurorsOnRound(ctx context.Context, roundID string) ([]domain.Juror, error)

	// ListJurors returns every juror in creation order.
	ListJurors(ctx context.Context) ([]domain.Juror, error)

	// GetRound returns a round's configuration.
	GetRound(ctx context.Context, roundID string) (domain.Round, error)

	// ListRounds returns every round ordered by sequence.
	ListRounds(ctx context.Context) ([]domain.Round, error)

	// ListDuels returns the pairings of a duel round.
	ListDuels(ctx context.Context, roundID string) ([]domain.DuelPairing, error)

	// ListDisplayOverrides returns administrator overrides of the displayed
	// score on a round, keyed by candidate ID.
	ListDisplayOverrides(ctx context.Context, roundID string) (map[string]float64, error)
}

// ContestWriter exposes the write primitives. Each write is atomic per
// document, except UpdateCandidates which applies its whole batch or none
// of it.
type ContestWriter interface {
	// PutScoreRecord inserts or replaces a record. It returns
	// domain.ErrDuplicateScoreRecord when the record exists and the round is locked.
	PutScoreRecord(ctx context.Context, rec domain.ScoreRecord) error

	PutCandidate(ctx context.Context, c domain.Candidate) error
	// UpdateCandidates replaces existing candidates. When any of them is
	// unknown it returns domain.ErrNotFound and changes nothing.
	UpdateCandidates(ctx context.Context, cs ...domain.Candidate) error
	PutJuror(ctx context.Context, j domain.Juror) error
	DeleteJuror(ctx context.Context, jurorID string) error
	PutRound(ctx context.Context, r domain.Round) error
	PutDuel(ctx context.Context, d domain.DuelPairing) error
	SetDisplayOverride(ctx context.Context, roundID, candidateID string, score float64) error
}

// ActivationLog is the append-only activation record.
type ActivationLog interface {
	// AppendActivation stores a. It reports false, without error, when an
	// entry with the same key already exists.
	AppendActivation(ctx context.Context, a domain.Activation) (bool, error)

	// ListActivations returns every entry in append order.
	ListActivations(ctx context.Context) ([]domain.Activation, error)
}

// ContestStore is the full document store surface.
type ContestStore interface {
	ContestReader
	ContestWriter
	ActivationLog
}

// ChangeEvent describes a committed write observed by a listener.
type ChangeEvent struct {
	// Collection is the logical collection that changed.
	Collection string

	// RoundID is the affected round, when known.
	RoundID string

	// CandidateID is the affected candidate, when known.
	CandidateID string

	// SessionID identifies the writer; see WithSession.
	SessionID string
}

// ChangeFeed is implemented by stores that push real-time change events.
type ChangeFeed interface {
	// Subscribe registers fn for every committed write and returns a
	// function that cancels the subscription. fn must not block.
	Subscribe(fn func(ChangeEvent)) (cancel func())
}

// Collection names used in ChangeEvent and StoreError.
const (
	CollectionScores      = "scores"
	CollectionCandidates  = "candidates"
	CollectionJurors      = "jurors"
	CollectionRounds      = "rounds"
	CollectionDuels       = "duels"
	CollectionOverrides   = "overrides"
	CollectionActivations = "activations"
)

type sessionKey struct{}

// WithSession tags writes performed with ctx as originating from session id.
// Stores copy it into ChangeEvent.SessionID so a listener can recognise the
// echo of its own writes.
func WithSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

// SessionFrom returns the session id carried by ctx, if any.
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
