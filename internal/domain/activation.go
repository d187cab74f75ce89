package domain

import "time"

// ActivationType classifies an activation log entry.
type ActivationType string

// Activation types.
const (
	// ActivationBonusVictoire records a winner bonus grant.
	ActivationBonusVictoire ActivationType = "bonus_victoire"

	// ActivationRunoffClassified records a candidate classified by the chair
	// on a repêchage round.
	ActivationRunoffClassified ActivationType = "repechage_classement"
)

// Activation is one append-only log entry. Entries are never mutated or
// deleted, and at most one exists per ActivationKey.
type Activation struct {
	ID          string         `json:"id"`
	Type        ActivationType `json:"type"`
	CandidateID string         `json:"candidate_id"`

	// Source is the triggering duel ID, round ID or juror ID.
	Source string `json:"source"`

	At time.Time `json:"at"`
}

// ActivationKey identifies an activation for deduplication.
type ActivationKey struct {
	Type        ActivationType
	CandidateID string
	Source      string
}

// Key returns the deduplication key of a.
func (a Activation) Key() ActivationKey {
	return ActivationKey{Type: a.Type, CandidateID: a.CandidateID, Source: a.Source}
}
