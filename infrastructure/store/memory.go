package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

var (
	_ ports.ContestStore = (*MemoryStore)(nil)
	_ ports.ChangeFeed   = (*MemoryStore)(nil)
)

// MemoryStore is a thread-safe in-memory ports.ContestStore.
type MemoryStore struct {
	Feed

	mu          sync.RWMutex
	rounds      map[string]domain.Round
	candidates  map[string]domain.Candidate
	jurors      map[string]domain.Juror
	duels       map[string]domain.DuelPairing
	records     map[domain.ScoreKey]domain.ScoreRecord
	overrides   map[string]map[string]float64
	activations []domain.Activation
	activated   map[domain.ActivationKey]struct{}
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rounds:     make(map[string]domain.Round),
		candidates: make(map[string]domain.Candidate),
		jurors:     make(map[string]domain.Juror),
		duels:      make(map[string]domain.DuelPairing),
		records:    make(map[domain.ScoreKey]domain.ScoreRecord),
		overrides:  make(map[string]map[string]float64),
		activated:  make(map[domain.ActivationKey]struct{}),
	}
}

// ListCandidates implements ports.ContestReader.
func (s *MemoryStore) ListCandidates(_ context.Context, roundID string) ([]domain.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if roundID == "" || c.RoundID == roundID {
			out = append(out, c)
		}
	}
	domain.SortCandidatesByCreation(out)
	return out, nil
}

// ListScoreRecords implements ports.ContestReader.
func (s *MemoryStore) ListScoreRecords(_ context.Context, roundID, candidateID string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ScoreRecord
	for k, rec := range s.records {
		if k.RoundID != roundID || (candidateID != "" && k.CandidateID != candidateID) {
			continue
		}
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b domain.ScoreRecord) int {
		if c := cmp.Compare(a.CandidateID, b.CandidateID); c != 0 {
			return c
		}
		return cmp.Compare(a.JurorID, b.JurorID)
	})
	return out, nil
}

// ListJurorsOnRound implements ports.ContestReader.
func (s *MemoryStore) ListJurorsOnRound(_ context.Context, roundID string) ([]domain.Juror, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	round, ok := s.rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("round %s: %w", roundID, domain.ErrNotFound)
	}

	out := make([]domain.Juror, 0, len(s.jurors))
	for _, j := range s.jurors {
		if slices.Contains(j.Rounds, roundID) || (round.Kind == domain.RoundRepechage && j.IsChair) {
			out = append(out, cloneJuror(j))
		}
	}
	sortJurors(out)
	return out, nil
}

// ListJurors implements ports.ContestReader.
func (s *MemoryStore) ListJurors(_ context.Context) ([]domain.Juror, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Juror, 0, len(s.jurors))
	for _, j := range s.jurors {
		out = append(out, cloneJuror(j))
	}
	sortJurors(out)
	return out, nil
}

// GetRound implements ports.ContestReader.
func (s *MemoryStore) GetRound(_ context.Context, roundID string) (domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rounds[roundID]
	if !ok {
		return domain.Round{}, fmt.Errorf("round %s: %w", roundID, domain.ErrNotFound)
	}
	return r, nil
}

// ListRounds implements ports.ContestReader.
func (s *MemoryStore) ListRounds(_ context.Context) ([]domain.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Collect(maps.Values(s.rounds))
	domain.SortRounds(out)
	return out, nil
}

// ListDuels implements ports.ContestReader.
func (s *MemoryStore) ListDuels(_ context.Context, roundID string) ([]domain.DuelPairing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DuelPairing
	for _, d := range s.duels {
		if d.RoundID == roundID {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b domain.DuelPairing) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListDisplayOverrides implements ports.ContestReader.
func (s *MemoryStore) ListDisplayOverrides(_ context.Context, roundID string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.overrides[roundID]), nil
}

// PutScoreRecord implements ports.ContestWriter.
func (s *MemoryStore) PutScoreRecord(ctx context.Context, rec domain.ScoreRecord) error {
	s.mu.Lock()
	round, ok := s.rounds[rec.RoundID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("round %s: %w", rec.RoundID, domain.ErrNotFound)
	}
	if _, exists := s.records[rec.Key()]; exists && round.Locked {
		s.mu.Unlock()
		return fmt.Errorf("candidate %s, juror %s: %w", rec.CandidateID, rec.JurorID, domain.ErrDuplicateScoreRecord)
	}
	s.records[rec.Key()] = rec
	s.mu.Unlock()

	s.publish(ctx, ports.CollectionScores, rec.RoundID, rec.CandidateID)
	return nil
}

// PutCandidate implements ports.ContestWriter.
func (s *MemoryStore) PutCandidate(ctx context.Context, c domain.Candidate) error {
	s.mu.Lock()
	s.candidates[c.ID] = c
	s.mu.Unlock()

	s.publish(ctx, ports.CollectionCandidates, c.RoundID, c.ID)
	return nil
}

// UpdateCandidates implements ports.ContestWriter.
func (s *MemoryStore) UpdateCandidates(ctx context.Context, cs ...domain.Candidate) error {
	s.mu.Lock()
	for _, c := range cs {
		if _, ok := s.candidates[c.ID]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("candidate %s: %w", c.ID, domain.ErrNotFound)
		}
	}
	for _, c := range cs {
		s.candidates[c.ID] = c
	}
	s.mu.Unlock()

	for _, c := range cs {
		s.publish(ctx, ports.CollectionCandidates, c.RoundID, c.ID)
	}
	return nil
}

// PutJuror implements ports.ContestWriter.
func (s *MemoryStore) PutJuror(ctx context.Context, j domain.Juror) error {
	s.mu.Lock()
	s.jurors[j.ID] = cloneJuror(j)
	s.mu.Unlock()

	s.publish(ctx, ports.CollectionJurors, "", "")
	return nil
}

// DeleteJuror implements ports.ContestWriter.
func (s *MemoryStore) DeleteJuror(ctx context.Context, jurorID string) error {
	s.mu.Lock()
	if _, ok := s.jurors[jurorID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("juror %s: %w", jurorID, domain.ErrNotFound)
	}
	delete(s.jurors, jurorID)
	s.mu.Unlock()

	s.publish(ctx, ports.CollectionJurors, "", "")
	return nil
}

// PutRound implements ports.ContestWriter.
func (s *MemoryStore) PutRound(ctx context.Context, r domain.Round) error {
	s.mu.Lock()
	s.rounds[r.ID] = r
	s.mu.Unlock()

	s.publish(ctx, ports.CollectionRounds, r.ID, "")
	return nil
}

// PutDuel implements ports.ContestWriter.
func (s *MemoryStore) PutDuel(ctx context.Context, d domain.DuelPairing) error {
	s.mu.Lock()
	s.duels[d.ID] = d
	s.mu.Unlock()

	s.publish(ctx, ports.CollectionDuels, d.RoundID, "")
	return nil
}

// SetDisplayOverride implements ports.ContestWriter.
func (s *MemoryStore) SetDisplayOverride(ctx context.Context, roundID, candidateID string, score float64) error {
	s.mu.Lock()
	if s.overrides[roundID] == nil {
		s.overrides[roundID] = make(map[string]float64)
	}
	s.overrides[roundID][candidateID] = score
	s.mu.Unlock()

	s.publish(ctx, ports.CollectionOverrides, roundID, candidateID)
	return nil
}

// AppendActivation implements ports.ActivationLog.
func (s *MemoryStore) AppendActivation(ctx context.Context, a domain.Activation) (bool, error) {
	s.mu.Lock()
	if _, dup := s.activated[a.Key()]; dup {
		s.mu.Unlock()
		return false, nil
	}
	s.activated[a.Key()] = struct{}{}
	s.activations = append(s.activations, a)
	s.mu.Unlock()

	s.publish(ctx, ports.CollectionActivations, "", a.CandidateID)
	return true, nil
}

// ListActivations implements ports.ActivationLog.
func (s *MemoryStore) ListActivations(_ context.Context) ([]domain.Activation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.activations), nil
}

func cloneJuror(j domain.Juror) domain.Juror {
	j.Rounds = slices.Clone(j.Rounds)
	return j
}

func sortJurors(jurors []domain.Juror) {
	slices.SortFunc(jurors, func(a, b domain.Juror) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
