package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

// Epoch is the fixed instant fixtures are created at.
var Epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Round IDs of the canned contest.
const (
	RoundHeat   = "heat"
	RoundRunoff = "runoff"
	RoundFinal  = "final"
)

// ContestRounds returns a notation heat qualifying two, a runoff
// qualifying one and an open duel final.
func ContestRounds() []domain.Round {
	return []domain.Round{
		{ID: RoundHeat, Name: "Heat", Sequence: 1, Kind: domain.RoundNotation, Quota: domain.QuotaOf(2)},
		{ID: RoundRunoff, Name: "Runoff", Sequence: 2, Kind: domain.RoundRepechage, Quota: domain.QuotaOf(1)},
		{ID: RoundFinal, Name: "Final", Sequence: 3, Kind: domain.RoundDuel, Quota: domain.QuotaAll},
	}
}

// ContestCandidates returns c1 Bob, c2 Alice and c3 Chloe, active on the
// heat and created a minute apart.
func ContestCandidates() []domain.Candidate {
	out := []domain.Candidate{
		{ID: "c1", Name: "Bob"},
		{ID: "c2", Name: "Alice"},
		{ID: "c3", Name: "Chloe"},
	}
	for i := range out {
		out[i].RoundID = RoundHeat
		out[i].Status = domain.StatusActive
		out[i].CreatedAt = Epoch.Add(time.Duration(i) * time.Minute)
	}
	return out
}

// ContestJurors returns j1, the chair, and j2, both scoring heat and final.
func ContestJurors() []domain.Juror {
	return []domain.Juror{
		{ID: "j1", Name: "Jeanne", Rounds: []string{RoundHeat, RoundFinal}, IsChair: true, CreatedAt: Epoch},
		{ID: "j2", Name: "Jules", Rounds: []string{RoundHeat, RoundFinal}, CreatedAt: Epoch.Add(time.Minute)},
	}
}

// SeedContest writes the canned contest into w.
func SeedContest(t testing.TB, w ports.ContestWriter) {
	t.Helper()
	ctx := context.Background()
	for _, r := range ContestRounds() {
		require.NoError(t, w.PutRound(ctx, r))
	}
	for _, c := range ContestCandidates() {
		require.NoError(t, w.PutCandidate(ctx, c))
	}
	for _, j := range ContestJurors() {
		require.NoError(t, w.PutJuror(ctx, j))
	}
}

// HeatScores gives Alice and Bob 110 each and Chloe 20 on the heat.
func HeatScores() []domain.ScoreRecord {
	raw := [][4]string{
		{"c2", "j1", "15", "20"},
		{"c2", "j2", "10", "15"},
		{"c1", "j1", "20", "10"},
		{"c1", "j2", "10", "10"},
		{"c3", "j1", "5", "5"},
		{"c3", "j2", "EL", "20"},
	}
	out := make([]domain.ScoreRecord, len(raw))
	for i, r := range raw {
		out[i] = domain.ScoreRecord{CandidateID: r[0], JurorID: r[1], RoundID: RoundHeat, Fond: r[2], Forme: r[3]}
	}
	return out
}
