package rules

import (
	"fmt"

	"github.com/ahrav/go-joute/internal/domain"
)

var (
	_ domain.Aggregator = (*WeightedAggregator)(nil)
)

// Criterion weights per round kind.
const (
	NotationFondWeight  = 3
	NotationFormeWeight = 1
	DuelFondWeight      = 1
	DuelFormeWeight     = 1
)

// WeightedAggregator sums weighted fond and forme over every authorized
// juror. A juror who marks either criterion EL contributes exactly 0 for
// that candidate; the candidate is not eliminated by it.
type WeightedAggregator struct {
	kind        domain.RoundKind
	fondWeight  int
	formeWeight int
}

// NewNotationAggregator weights fond triple and forme single, so one juror
// contributes at most 80.
func NewNotationAggregator() *WeightedAggregator {
	return &WeightedAggregator{kind: domain.RoundNotation, fondWeight: NotationFondWeight, formeWeight: NotationFormeWeight}
}

// NewDuelAggregator weights fond and forme equally, so one juror
// contributes at most 40.
func NewDuelAggregator() *WeightedAggregator {
	return &WeightedAggregator{kind: domain.RoundDuel, fondWeight: DuelFondWeight, formeWeight: DuelFormeWeight}
}

// Kind returns the round kind this aggregator handles.
func (wa *WeightedAggregator) Kind() domain.RoundKind { return wa.kind }

// Contribution returns one juror's weighted contribution.
// Incomplete criteria count as 0 without zeroing the other criterion.
func (wa *WeightedAggregator) Contribution(fond, forme domain.ScoreValue) int {
	if fond.IsEliminated() || forme.IsEliminated() {
		return 0
	}
	return fond.Points()*wa.fondWeight + forme.Points()*wa.formeWeight
}

// Aggregate implements domain.Aggregator.
func (wa *WeightedAggregator) Aggregate(in domain.AggregationInput) (map[string]float64, error) {
	if in.Round.Kind != wa.kind {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrWrongRoundKind, in.Round.Kind, wa.kind)
	}

	bases := make(map[string]float64, len(in.Candidates))
	for _, c := range in.Candidates {
		bases[c.ID] = 0
	}

	for _, rec := range latestRecords(in.Records, jurorSet(in.Jurors)) {
		if _, ok := bases[rec.CandidateID]; !ok {
			continue
		}
		fond, forme, err := rec.Normalize(wa.kind)
		if err != nil {
			return nil, fmt.Errorf("candidate %s, juror %s: %w", rec.CandidateID, rec.JurorID, err)
		}
		bases[rec.CandidateID] += float64(wa.Contribution(fond, forme))
	}

	return bases, nil
}
