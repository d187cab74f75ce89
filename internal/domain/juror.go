package domain

import (
	"cmp"
	"slices"
	"time"
)

// Juror scores candidates on the rounds they are authorized for.
type Juror struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// CredentialHash is a bcrypt hash; the plain credential is never stored.
	CredentialHash string `json:"-"`

	// Rounds lists the round IDs the juror may score.
	Rounds []string `json:"rounds"`

	// IsChair grants access to repêchage rounds. At most one juror holds it.
	IsChair bool `json:"is_chair"`

	CreatedAt time.Time `json:"created_at"`
}

// Authorized reports whether the juror may score the round.
func (j Juror) Authorized(round Round) bool {
	if round.Kind == RoundRepechage {
		return j.IsChair
	}
	return slices.Contains(j.Rounds, round.ID)
}

// AuthorizedJurors returns the jurors whose scores count on the round.
// On a repêchage round only the chair counts.
func AuthorizedJurors(round Round, jurors []Juror) []Juror {
	out := make([]Juror, 0, len(jurors))
	for _, j := range jurors {
		if j.Authorized(round) {
			out = append(out, j)
		}
	}
	return out
}

// ChairOf returns the chair among jurors.
func ChairOf(jurors []Juror) (Juror, bool) {
	for _, j := range jurors {
		if j.IsChair {
			return j, true
		}
	}
	return Juror{}, false
}

// NextChair picks the successor chair from the remaining jurors: the
// earliest created, then the smallest ID. It returns false when none remain.
func NextChair(remaining []Juror) (Juror, bool) {
	if len(remaining) == 0 {
		return Juror{}, false
	}
	return slices.MinFunc(remaining, func(a, b Juror) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	}), true
}
