package rules

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ahrav/go-joute/internal/domain"
)

// ResolveDuels decides each pairing from the candidates' base scores.
// Equal scores go to the candidate first in policy order and are flagged
// as tied. Pairings referencing an unknown candidate are rejected.
func ResolveDuels(
	pairings []domain.DuelPairing,
	bases map[string]float64,
	candidates []domain.Candidate,
	policy domain.TieBreakPolicy,
) ([]domain.DuelOutcome, error) {
	names := make(map[string]string, len(candidates))
	for _, c := range candidates {
		names[c.ID] = norm.NFC.String(c.Name)
	}

	outcomes := make([]domain.DuelOutcome, 0, len(pairings))
	for _, p := range pairings {
		a, okA := bases[p.CandidateA]
		b, okB := bases[p.CandidateB]
		if !okA || !okB {
			return nil, fmt.Errorf("duel %s: %w: candidate without score", p.ID, domain.ErrNotFound)
		}

		out := domain.DuelOutcome{DuelID: p.ID}
		winA := a > b
		if a == b {
			out.Tied = true
			winA = firstInOrder(p.CandidateA, p.CandidateB, names, policy)
		}
		if winA {
			out.WinnerID, out.LoserID, out.Winner, out.Loser = p.CandidateA, p.CandidateB, a, b
		} else {
			out.WinnerID, out.LoserID, out.Winner, out.Loser = p.CandidateB, p.CandidateA, b, a
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// WinnersAllowList builds a bonus allow-list from non-tied duel outcomes,
// sourcing each grant to its duel.
func WinnersAllowList(outcomes []domain.DuelOutcome) BonusAllowList {
	allow := make(BonusAllowList, len(outcomes))
	for _, o := range outcomes {
		if !o.Tied {
			allow[o.WinnerID] = o.DuelID
		}
	}
	return allow
}

func firstInOrder(a, b string, names map[string]string, policy domain.TieBreakPolicy) bool {
	if policy == domain.TieBreakName {
		if c := strings.Compare(names[a], names[b]); c != 0 {
			return c < 0
		}
	}
	return a < b
}
