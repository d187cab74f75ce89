package testutils

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ahrav/go-joute/internal/domain"
)

// notationValues are the raw values a juror may enter on notation and duel
// rounds, weighted so that the eliminated sentinel stays rare.
var notationValues = []string{"5", "10", "10", "15", "15", "20", "20", domain.RawEliminated}

// ScoreGenerator produces reproducible contests for property tests and
// benchmarks. The same seed always yields the same data.
type ScoreGenerator struct {
	rng *rand.Rand
}

// NewScoreGenerator returns a generator seeded with seed.
func NewScoreGenerator(seed uint64) *ScoreGenerator {
	return &ScoreGenerator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Candidates returns n active candidates on roundID. Names repeat every
// ten candidates to exercise tie-breaks.
func (g *ScoreGenerator) Candidates(roundID string, n int) []domain.Candidate {
	out := make([]domain.Candidate, n)
	for i := range out {
		out[i] = domain.Candidate{
			ID:        fmt.Sprintf("cand-%04d", i),
			Name:      fmt.Sprintf("Candidate %d", i%10),
			RoundID:   roundID,
			Status:    domain.StatusActive,
			CreatedAt: Epoch.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

// Jurors returns n jurors authorized on roundID; the first is chair.
func (g *ScoreGenerator) Jurors(roundID string, n int) []domain.Juror {
	out := make([]domain.Juror, n)
	for i := range out {
		out[i] = domain.Juror{
			ID:        fmt.Sprintf("juror-%02d", i),
			Name:      fmt.Sprintf("Juror %d", i),
			Rounds:    []string{roundID},
			IsChair:   i == 0,
			CreatedAt: Epoch.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

// Records returns one complete record per (candidate, juror) pair with
// values valid for round's kind.
func (g *ScoreGenerator) Records(round domain.Round, candidates []domain.Candidate, jurors []domain.Juror) []domain.ScoreRecord {
	out := make([]domain.ScoreRecord, 0, len(candidates)*len(jurors))
	for _, c := range candidates {
		for _, j := range jurors {
			rec := domain.ScoreRecord{
				CandidateID: c.ID,
				JurorID:     j.ID,
				RoundID:     round.ID,
				UpdatedAt:   Epoch,
			}
			if round.Kind == domain.RoundRepechage {
				rec.Fond = []string{domain.RawAdvance, domain.RawEliminate}[g.rng.IntN(2)]
				rec.Forme = domain.RawIncomplete
			} else {
				rec.Fond = notationValues[g.rng.IntN(len(notationValues))]
				rec.Forme = notationValues[g.rng.IntN(len(notationValues))]
			}
			out = append(out, rec)
		}
	}
	return out
}

// Shuffle permutes records in place.
func (g *ScoreGenerator) Shuffle(records []domain.ScoreRecord) {
	g.rng.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })
}
