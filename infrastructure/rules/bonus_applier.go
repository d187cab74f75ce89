package rules

import (
	"github.com/ahrav/go-joute/internal/domain"
)

// BonusMultiplier inflates an eligible candidate's base score.
const BonusMultiplier = 1.10

// BonusAllowList maps eligible candidate IDs to the source of their bonus,
// typically the duel they won. An empty source falls back to the round ID.
type BonusAllowList map[string]string

// BonusApplier turns base scores into applied scores for candidates on the
// allow-list. An empty allow-list disables the bonus entirely.
type BonusApplier struct {
	allow BonusAllowList
}

// NewBonusApplier copies allow so later caller mutations have no effect.
func NewBonusApplier(allow BonusAllowList) *BonusApplier {
	copied := make(BonusAllowList, len(allow))
	for id, src := range allow {
		copied[id] = src
	}
	return &BonusApplier{allow: copied}
}

// Enabled reports whether any candidate is eligible.
func (ba *BonusApplier) Enabled() bool { return len(ba.allow) > 0 }

// Eligible reports whether candidateID is on the allow-list.
func (ba *BonusApplier) Eligible(candidateID string) bool {
	_, ok := ba.allow[candidateID]
	return ok
}

// ApplyBonus returns round(base × 1.10, 2) when eligible, base otherwise.
// It is not idempotent: feeding its result back in compounds the bonus.
// Pass the unbonused base, or use BonusApplier.Apply, which reads only
// ScoreTriple.Base.
func ApplyBonus(base float64, eligible bool) float64 {
	if !eligible {
		return base
	}
	return roundTo2(base * BonusMultiplier)
}

// Apply recomputes Applied and Displayed from t.Base. Because only Base is
// read, applying twice yields the same triple. When a bonus is granted the
// returned activation describes it; ID and timestamp are left for the
// caller to stamp before logging.
func (ba *BonusApplier) Apply(roundID, candidateID string, t domain.ScoreTriple) (domain.ScoreTriple, *domain.Activation) {
	eligible := ba.Eligible(candidateID)
	t.Applied = ApplyBonus(t.Base, eligible)
	t.Displayed = t.Applied
	if !eligible {
		return t, nil
	}

	source := ba.allow[candidateID]
	if source == "" {
		source = roundID
	}
	return t, &domain.Activation{
		Type:        domain.ActivationBonusVictoire,
		CandidateID: candidateID,
		Source:      source,
	}
}
