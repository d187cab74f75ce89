package rules

import (
	"fmt"

	"github.com/ahrav/go-joute/internal/domain"
)

var _ domain.Aggregator = (*RepechageAggregator)(nil)

// RepechageAggregator carries a candidate's previous-round base score
// through when the chair votes to advance, and zeroes it otherwise. Records
// from any other juror are ignored.
type RepechageAggregator struct{}

// NewRepechageAggregator returns the runoff aggregator.
func NewRepechageAggregator() *RepechageAggregator { return &RepechageAggregator{} }

// Kind returns domain.RoundRepechage.
func (ra *RepechageAggregator) Kind() domain.RoundKind { return domain.RoundRepechage }

// Aggregate implements domain.Aggregator. Without a chair among in.Jurors
// every candidate scores 0; the completeness gate reports the round as
// incomplete in that case.
func (ra *RepechageAggregator) Aggregate(in domain.AggregationInput) (map[string]float64, error) {
	if in.Round.Kind != domain.RoundRepechage {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongRoundKind, in.Round.Kind, domain.RoundRepechage)
	}

	bases := make(map[string]float64, len(in.Candidates))
	for _, c := range in.Candidates {
		bases[c.ID] = 0
	}

	chair, ok := domain.ChairOf(in.Jurors)
	if !ok {
		return bases, nil
	}

	votes := latestRecords(in.Records, map[string]struct{}{chair.ID: {}})
	for _, rec := range votes {
		if _, ok := bases[rec.CandidateID]; !ok {
			continue
		}
		vote, _, err := rec.Normalize(domain.RoundRepechage)
		if err != nil {
			return nil, fmt.Errorf("candidate %s, chair %s: %w", rec.CandidateID, rec.JurorID, err)
		}
		if vote.IsAdvance() {
			bases[rec.CandidateID] = in.Previous[rec.CandidateID]
		}
	}

	return bases, nil
}

// ChairVotes returns the chair's decoded vote per candidate. Candidates the
// chair has not voted on are absent.
func ChairVotes(chairID string, records []domain.ScoreRecord) (map[string]domain.ScoreValue, error) {
	votes := make(map[string]domain.ScoreValue)
	for _, rec := range latestRecords(records, map[string]struct{}{chairID: {}}) {
		vote, _, err := rec.Normalize(domain.RoundRepechage)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", rec.CandidateID, err)
		}
		if !vote.IsIncomplete() {
			votes[rec.CandidateID] = vote
		}
	}
	return votes, nil
}
