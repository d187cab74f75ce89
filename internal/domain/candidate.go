package domain

import (
	"cmp"
	"slices"
	"time"
)

// CandidateStatus tracks a candidate's standing in the contest.
type CandidateStatus string

// Candidate statuses.
const (
	StatusActive     CandidateStatus = "active"
	StatusQualified  CandidateStatus = "qualified"
	StatusEliminated CandidateStatus = "eliminated"
	StatusReset      CandidateStatus = "reset"
)

// Candidate is a contestant.
type Candidate struct {
	// ID is unique and stable.
	ID string `json:"id"`

	// Name is the display name, also the ranking tie-break key.
	Name string `json:"name"`

	// RoundID is the round the candidate is currently assigned to.
	RoundID string `json:"round_id"`

	// Status changes only through committed qualification or admin reset.
	Status CandidateStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
}

// Rankable reports whether the candidate may enter a ranking pass.
// Eliminated candidates stay out until an administrator resets them.
func (c Candidate) Rankable() bool { return c.Status != StatusEliminated }

// RankableCandidates filters out eliminated candidates, preserving order.
func RankableCandidates(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Rankable() {
			out = append(out, c)
		}
	}
	return out
}

// SortCandidatesByCreation orders candidates by creation time, then ID.
func SortCandidatesByCreation(candidates []Candidate) {
	slices.SortFunc(candidates, func(a, b Candidate) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
