package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-joute/internal/domain"
)

func TestResolveDuels(t *testing.T) {
	candidates := []domain.Candidate{
		{ID: "1", Name: "Zoé"},
		{ID: "2", Name: "Adam"},
		{ID: "3", Name: "Maya"},
	}
	bases := map[string]float64{"1": 35, "2": 35, "3": 20}

	tests := []struct {
		name       string
		pairing    domain.DuelPairing
		policy     domain.TieBreakPolicy
		wantWinner string
		wantTied   bool
	}{
		{"higher score wins", domain.DuelPairing{ID: "d1", CandidateA: "3", CandidateB: "1"}, domain.TieBreakName, "1", false},
		{"tie by name", domain.DuelPairing{ID: "d2", CandidateA: "1", CandidateB: "2"}, domain.TieBreakName, "2", true},
		{"tie by id", domain.DuelPairing{ID: "d3", CandidateA: "2", CandidateB: "1"}, domain.TieBreakID, "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ResolveDuels([]domain.DuelPairing{tt.pairing}, bases, candidates, tt.policy)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, tt.pairing.ID, out[0].DuelID)
			assert.Equal(t, tt.wantWinner, out[0].WinnerID)
			assert.Equal(t, tt.wantTied, out[0].Tied)
			assert.GreaterOrEqual(t, out[0].Winner, out[0].Loser)
		})
	}

	t.Run("unknown candidate", func(t *testing.T) {
		_, err := ResolveDuels([]domain.DuelPairing{{ID: "d9", CandidateA: "1", CandidateB: "ghost"}}, bases, candidates, domain.TieBreakName)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestWinnersAllowList(t *testing.T) {
	allow := WinnersAllowList([]domain.DuelOutcome{
		{DuelID: "d1", WinnerID: "1", LoserID: "2"},
		{DuelID: "d2", WinnerID: "3", LoserID: "4", Tied: true},
	})
	assert.Equal(t, BonusAllowList{"1": "d1"}, allow)
}

// TestScoringScenario walks one candidate through a notation round, the
// winner bonus and a repêchage vote.
func TestScoringScenario(t *testing.T) {
	round := domain.Round{ID: "r1", Kind: domain.RoundNotation, Quota: domain.QuotaOf(1)}
	jurors := []domain.Juror{
		{ID: "j1", Rounds: []string{"r1"}, IsChair: true},
		{ID: "j2", Rounds: []string{"r1"}},
	}
	candidates := []domain.Candidate{{ID: "1", Name: "Alice", Status: domain.StatusActive}}
	records := []domain.ScoreRecord{
		{CandidateID: "1", JurorID: "j1", RoundID: "r1", Fond: "15", Forme: "20"},
		{CandidateID: "1", JurorID: "j2", RoundID: "r1", Fond: "10", Forme: "15"},
	}

	bases, err := NewNotationAggregator().Aggregate(domain.AggregationInput{
		Round: round, Candidates: candidates, Jurors: jurors, Records: records,
	})
	require.NoError(t, err)
	require.Equal(t, 110.0, bases["1"])

	triple, grant := NewBonusApplier(BonusAllowList{"1": "d1"}).Apply("r1", "1", domain.ScoreTriple{Base: bases["1"]})
	require.NotNil(t, grant)
	assert.Equal(t, domain.ScoreTriple{Base: 110, Applied: 121, Displayed: 121}, triple)

	rep := domain.Round{ID: "rep", Kind: domain.RoundRepechage, Quota: domain.QuotaOf(1)}
	for vote, want := range map[string]float64{"0": 0, "1": 120} {
		out, err := NewRepechageAggregator().Aggregate(domain.AggregationInput{
			Round:      rep,
			Candidates: candidates,
			Jurors:     jurors,
			Records:    []domain.ScoreRecord{{CandidateID: "1", JurorID: "j1", RoundID: "rep", Fond: vote}},
			Previous:   map[string]float64{"1": 120},
		})
		require.NoError(t, err)
		assert.Equal(t, want, out["1"], "vote %s", vote)
	}
}
