// Package domain contains pure, dependency-free domain models and types
// for the contest scoring engine.
package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// RoundKind determines how a round's score records are aggregated.
type RoundKind string

// Supported round kinds.
const (
	// RoundNotation rounds score fond and forme from 5 to 20, fond weighted triple.
	RoundNotation RoundKind = "notation"

	// RoundDuel rounds are head-to-head; fond and forme weigh equally.
	RoundDuel RoundKind = "duel"

	// RoundRepechage rounds are runoffs decided by a single chair vote per candidate.
	RoundRepechage RoundKind = "repechage"
)

// Valid reports whether k is one of the supported round kinds.
func (k RoundKind) Valid() bool {
	switch k {
	case RoundNotation, RoundDuel, RoundRepechage:
		return true
	default:
		return false
	}
}

// QuotaAllLiteral is the textual form of the "everyone advances" quota.
const QuotaAllLiteral = "ALL"

// Quota is a round's advancement rule: either a positive count or ALL.
// The zero value is invalid and must be rejected before ranking.
type Quota struct {
	count int
	all   bool
}

// QuotaAll lets every remaining candidate advance.
var QuotaAll = Quota{all: true}

// QuotaOf returns a fixed-count quota. Validity is checked by Validate.
func QuotaOf(n int) Quota { return Quota{count: n} }

// ParseQuota parses "ALL" (case-insensitive) or a positive integer.
func ParseQuota(s string) (Quota, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, QuotaAllLiteral) {
		return QuotaAll, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Quota{}, fmt.Errorf("%w: %q is neither a positive integer nor %s", ErrInvalidQuota, s, QuotaAllLiteral)
	}
	q := QuotaOf(n)
	if err := q.Validate(); err != nil {
		return Quota{}, err
	}
	return q, nil
}

// IsAll reports whether the quota lets every candidate advance.
func (q Quota) IsAll() bool { return q.all }

// Count returns the fixed count; it is meaningless when IsAll is true.
func (q Quota) Count() int { return q.count }

// Validate returns ErrInvalidQuota unless q is ALL or a positive count.
func (q Quota) Validate() error {
	if q.all || q.count > 0 {
		return nil
	}
	return fmt.Errorf("%w: %d must be positive", ErrInvalidQuota, q.count)
}

// Resolve returns how many of n candidates qualify, clamped to [0, n].
func (q Quota) Resolve(n int) int {
	if n < 0 {
		return 0
	}
	if q.all || q.count > n {
		return n
	}
	return max(q.count, 0)
}

// String returns "ALL" or the decimal count.
func (q Quota) String() string {
	if q.all {
		return QuotaAllLiteral
	}
	return strconv.Itoa(q.count)
}

// MarshalText implements encoding.TextMarshaler.
func (q Quota) MarshalText() ([]byte, error) { return []byte(q.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quota) UnmarshalText(text []byte) error {
	parsed, err := ParseQuota(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Round is one stage of the contest.
type Round struct {
	// ID uniquely identifies the round.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Sequence defines the total order over rounds and must be unique.
	Sequence int `json:"sequence"`

	// Kind selects the aggregation rule.
	Kind RoundKind `json:"kind"`

	// Quota is the advancement rule applied by the ranking engine.
	Quota Quota `json:"quota"`

	// Locked forbids overwriting an existing score record on this round.
	Locked bool `json:"locked"`
}

// SortRounds orders rounds by sequence, in place.
func SortRounds(rounds []Round) {
	slices.SortFunc(rounds, func(a, b Round) int { return a.Sequence - b.Sequence })
}

// PreviousRound returns the round with the greatest sequence below current.
func PreviousRound(rounds []Round, current Round) (Round, bool) {
	var (
		prev  Round
		found bool
	)
	for _, r := range rounds {
		if r.Sequence < current.Sequence && (!found || r.Sequence > prev.Sequence) {
			prev, found = r, true
		}
	}
	return prev, found
}

// NextRound returns the round with the smallest sequence above current.
func NextRound(rounds []Round, current Round) (Round, bool) {
	var (
		next  Round
		found bool
	)
	for _, r := range rounds {
		if r.Sequence > current.Sequence && (!found || r.Sequence < next.Sequence) {
			next, found = r, true
		}
	}
	return next, found
}
