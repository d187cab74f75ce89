package rules

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ahrav/go-joute/internal/domain"
)

// RankingConfig defines the ranking engine's tie-break behaviour.
type RankingConfig struct {
	// TieBreak orders candidates with equal displayed scores.
	TieBreak domain.TieBreakPolicy `yaml:"tie_break" json:"tie_break" validate:"required,oneof=name id"`
}

// DefaultRankingConfig breaks ties by display name.
func DefaultRankingConfig() RankingConfig {
	return RankingConfig{TieBreak: domain.TieBreakName}
}

// Scored pairs a candidate with its score triple on the round being ranked.
type Scored struct {
	Candidate domain.Candidate
	Triple    domain.ScoreTriple
}

// RankingEngine orders candidates by displayed score and partitions them
// by quota. It is stateless and safe for concurrent use.
type RankingEngine struct {
	config RankingConfig
}

// NewRankingEngine validates config and returns an engine.
func NewRankingEngine(config RankingConfig) (*RankingEngine, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RankingEngine{config: config}, nil
}

// TieBreak returns the configured policy.
func (re *RankingEngine) TieBreak() domain.TieBreakPolicy { return re.config.TieBreak }

// Rank sorts candidates by displayed score descending and assigns ranks
// 1..N in the resulting total order. Eliminated candidates are left out.
// Names compare byte-wise after NFC normalisation, so the order is
// case-sensitive and independent of how accents were encoded.
func (re *RankingEngine) Rank(scored []Scored) ([]domain.RankedEntry, error) {
	type keyed struct {
		Scored
		nameKey string
	}

	pool := make([]keyed, 0, len(scored))
	for _, s := range scored {
		if !s.Candidate.Rankable() {
			continue
		}
		if math.IsNaN(s.Triple.Displayed) || math.IsInf(s.Triple.Displayed, 0) {
			return nil, fmt.Errorf("%w: candidate %s", ErrInvalidScore, s.Candidate.ID)
		}
		pool = append(pool, keyed{Scored: s, nameKey: norm.NFC.String(s.Candidate.Name)})
	}

	slices.SortStableFunc(pool, func(a, b keyed) int {
		if c := cmp.Compare(b.Triple.Displayed, a.Triple.Displayed); c != 0 {
			return c
		}
		if re.config.TieBreak == domain.TieBreakName {
			if c := strings.Compare(a.nameKey, b.nameKey); c != 0 {
				return c
			}
		}
		return strings.Compare(a.Candidate.ID, b.Candidate.ID)
	})

	ranked := make([]domain.RankedEntry, len(pool))
	for i, k := range pool {
		ranked[i] = domain.RankedEntry{
			Rank:        i + 1,
			CandidateID: k.Candidate.ID,
			Name:        k.Candidate.Name,
			Triple:      k.Triple,
		}
	}
	return ranked, nil
}

// Partition qualifies the top quota.Resolve(len(ranked)) entries and
// eliminates the rest. It fails with domain.ErrInvalidQuota for a quota
// that is neither positive nor ALL.
func (re *RankingEngine) Partition(roundID string, ranked []domain.RankedEntry, quota domain.Quota) (domain.Qualification, error) {
	if err := quota.Validate(); err != nil {
		return domain.Qualification{}, err
	}

	cut := quota.Resolve(len(ranked))
	q := domain.Qualification{
		RoundID:    roundID,
		Qualified:  make([]string, 0, cut),
		Eliminated: make([]string, 0, len(ranked)-cut),
	}
	for i, e := range ranked {
		if i < cut {
			q.Qualified = append(q.Qualified, e.CandidateID)
		} else {
			q.Eliminated = append(q.Eliminated, e.CandidateID)
		}
	}
	return q, nil
}

// ValidateManualPartition checks a chair's explicit runoff partition. Both
// lists must be disjoint, free of duplicates, drawn from candidates and
// together cover every rankable candidate. The qualified list must hold
// exactly quota.Resolve(total) entries, so ALL implies no eliminations.
func ValidateManualPartition(
	roundID string,
	candidates []domain.Candidate,
	quota domain.Quota,
	qualified, eliminated []string,
) (domain.Qualification, error) {
	if err := quota.Validate(); err != nil {
		return domain.Qualification{}, err
	}

	known := make(map[string]struct{}, len(candidates))
	for _, c := range domain.RankableCandidates(candidates) {
		known[c.ID] = struct{}{}
	}

	verr := domain.NewValidationError("partition")
	seen := make(map[string]string, len(qualified)+len(eliminated))
	check := func(list string, ids []string) {
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				verr.AddErrorf("%s: unknown or eliminated candidate %s", list, id)
				continue
			}
			if prev, dup := seen[id]; dup {
				verr.AddErrorf("candidate %s listed in %s and %s", id, prev, list)
				continue
			}
			seen[id] = list
		}
	}
	check("qualified", qualified)
	check("eliminated", eliminated)

	for id := range known {
		if _, ok := seen[id]; !ok {
			verr.AddErrorf("candidate %s is missing from the partition", id)
		}
	}

	if want := quota.Resolve(len(known)); len(qualified) != want {
		verr.AddErrorf("quota %s expects %d qualified, got %d", quota, want, len(qualified))
	}

	if verr.HasErrors() {
		slices.Sort(verr.Errors)
		return domain.Qualification{}, fmt.Errorf("%w: %w", domain.ErrInvalidPartition, verr)
	}

	return domain.Qualification{
		RoundID:    roundID,
		Qualified:  slices.Clone(qualified),
		Eliminated: slices.Clone(eliminated),
	}, nil
}
