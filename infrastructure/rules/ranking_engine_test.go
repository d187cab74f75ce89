package rules

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-joute/internal/domain"
)

func scored(id, name string, displayed float64) Scored {
	return Scored{
		Candidate: domain.Candidate{ID: id, Name: name, Status: domain.StatusActive},
		Triple:    domain.ScoreTriple{Base: displayed, Applied: displayed, Displayed: displayed},
	}
}

func rankedIDs(entries []domain.RankedEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.CandidateID
	}
	return ids
}

func TestNewRankingEngine(t *testing.T) {
	tests := []struct {
		name    string
		config  RankingConfig
		wantErr bool
	}{
		{"default", DefaultRankingConfig(), false},
		{"by id", RankingConfig{TieBreak: domain.TieBreakID}, false},
		{"empty", RankingConfig{}, true},
		{"unknown", RankingConfig{TieBreak: "random"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := NewRankingEngine(tt.config)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "configuration validation failed")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.config.TieBreak, re.TieBreak())
		})
	}
}

func TestRankingEngine_Rank(t *testing.T) {
	byName, err := NewRankingEngine(DefaultRankingConfig())
	require.NoError(t, err)
	byID, err := NewRankingEngine(RankingConfig{TieBreak: domain.TieBreakID})
	require.NoError(t, err)

	t.Run("ties broken by name", func(t *testing.T) {
		got, err := byName.Rank([]Scored{
			scored("c", "C", 90),
			scored("b", "B", 100),
			scored("a", "A", 100),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, rankedIDs(got))
		for i, e := range got {
			assert.Equal(t, i+1, e.Rank)
		}
	})

	t.Run("ties broken by id", func(t *testing.T) {
		got, err := byID.Rank([]Scored{
			scored("2", "Anne", 50),
			scored("1", "Zoé", 50),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, rankedIDs(got))
	})

	t.Run("equal names fall back to id", func(t *testing.T) {
		got, err := byName.Rank([]Scored{
			scored("9", "Same", 10),
			scored("3", "Same", 10),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"3", "9"}, rankedIDs(got))
	})

	t.Run("name comparison is normalised", func(t *testing.T) {
		composed := "\u00c9lise"
		decomposed := "E\u0301lise"
		got, err := byName.Rank([]Scored{
			scored("2", decomposed, 10),
			scored("1", composed, 10),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2"}, rankedIDs(got), "equal after NFC, so id decides")
	})

	t.Run("excludes eliminated", func(t *testing.T) {
		out := scored("x", "X", 200)
		out.Candidate.Status = domain.StatusEliminated
		got, err := byName.Rank([]Scored{out, scored("a", "A", 1)})
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, rankedIDs(got))
	})

	t.Run("deterministic for any input order", func(t *testing.T) {
		in := []Scored{scored("a", "A", 5), scored("b", "B", 5), scored("c", "C", 7), scored("d", "D", 5)}
		first, err := byName.Rank(in)
		require.NoError(t, err)
		reversed := []Scored{in[3], in[2], in[1], in[0]}
		second, err := byName.Rank(reversed)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("empty", func(t *testing.T) {
		got, err := byName.Rank(nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("rejects NaN", func(t *testing.T) {
		_, err := byName.Rank([]Scored{scored("a", "A", math.NaN())})
		assert.ErrorIs(t, err, ErrInvalidScore)
	})
}

func TestRankingEngine_Partition(t *testing.T) {
	re, err := NewRankingEngine(DefaultRankingConfig())
	require.NoError(t, err)

	ranked, err := re.Rank([]Scored{
		scored("1", "A", 50),
		scored("2", "B", 40),
		scored("3", "C", 30),
		scored("4", "D", 20),
		scored("5", "E", 10),
	})
	require.NoError(t, err)

	tests := []struct {
		name           string
		quota          domain.Quota
		wantQualified  []string
		wantEliminated []string
		wantErr        error
	}{
		{"quota two", domain.QuotaOf(2), []string{"1", "2"}, []string{"3", "4", "5"}, nil},
		{"quota all", domain.QuotaAll, []string{"1", "2", "3", "4", "5"}, []string{}, nil},
		{"quota above count", domain.QuotaOf(9), []string{"1", "2", "3", "4", "5"}, []string{}, nil},
		{"zero quota", domain.QuotaOf(0), nil, nil, domain.ErrInvalidQuota},
		{"negative quota", domain.QuotaOf(-1), nil, nil, domain.ErrInvalidQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := re.Partition("r1", ranked, tt.quota)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "r1", q.RoundID)
			assert.Equal(t, tt.wantQualified, q.Qualified)
			assert.Equal(t, tt.wantEliminated, q.Eliminated)
			assert.Len(t, q.Qualified, tt.quota.Resolve(len(ranked)))
		})
	}
}

func TestValidateManualPartition(t *testing.T) {
	candidates := []domain.Candidate{
		{ID: "1", Status: domain.StatusActive},
		{ID: "2", Status: domain.StatusActive},
		{ID: "3", Status: domain.StatusActive},
		{ID: "4", Status: domain.StatusEliminated},
	}

	tests := []struct {
		name       string
		quota      domain.Quota
		qualified  []string
		eliminated []string
		wantErr    error
		wantMsg    string
	}{
		{name: "valid", quota: domain.QuotaOf(1), qualified: []string{"2"}, eliminated: []string{"1", "3"}},
		{name: "valid all", quota: domain.QuotaAll, qualified: []string{"1", "2", "3"}},
		{name: "overlap", quota: domain.QuotaOf(1), qualified: []string{"2"}, eliminated: []string{"1", "2", "3"},
			wantErr: domain.ErrInvalidPartition, wantMsg: "listed in qualified and eliminated"},
		{name: "missing", quota: domain.QuotaOf(1), qualified: []string{"2"}, eliminated: []string{"1"},
			wantErr: domain.ErrInvalidPartition, wantMsg: "candidate 3 is missing"},
		{name: "unknown", quota: domain.QuotaOf(1), qualified: []string{"2"}, eliminated: []string{"1", "3", "zz"},
			wantErr: domain.ErrInvalidPartition, wantMsg: "unknown or eliminated candidate zz"},
		{name: "eliminated candidate listed", quota: domain.QuotaOf(1), qualified: []string{"4"}, eliminated: []string{"1", "2", "3"},
			wantErr: domain.ErrInvalidPartition, wantMsg: "unknown or eliminated candidate 4"},
		{name: "wrong count", quota: domain.QuotaOf(2), qualified: []string{"2"}, eliminated: []string{"1", "3"},
			wantErr: domain.ErrInvalidPartition, wantMsg: "expects 2 qualified, got 1"},
		{name: "invalid quota", quota: domain.QuotaOf(0), wantErr: domain.ErrInvalidQuota},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ValidateManualPartition("rep", candidates, tt.quota, tt.qualified, tt.eliminated)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					assert.Contains(t, err.Error(), tt.wantMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "rep", q.RoundID)
			assert.Equal(t, tt.qualified, q.Qualified)
		})
	}
}
