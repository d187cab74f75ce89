package domain

import (
	"strconv"
	"strings"
	"time"
)

// Raw sentinels accepted in score records.
const (
	// RawIncomplete marks a criterion that has not been entered yet.
	RawIncomplete = "-"

	// RawEliminated is the notation/duel sentinel zeroing a juror's contribution.
	RawEliminated = "EL"

	// RawAdvance and RawEliminate are the repêchage chair votes.
	RawAdvance   = "1"
	RawEliminate = "0"
)

// Criterion names used in error reporting.
const (
	CriterionFond  = "fond"
	CriterionForme = "forme"
)

// Maximum single-juror contributions per round kind.
const (
	MaxNotationContribution = 20*3 + 20
	MaxDuelContribution     = 20 + 20
)

// ValueKind discriminates ScoreValue.
type ValueKind uint8

const (
	// ValueIncomplete means nothing usable was entered. It blocks completeness
	// but does not zero a score.
	ValueIncomplete ValueKind = iota
	// ValueNumeric carries points in {5, 10, 15, 20}.
	ValueNumeric
	// ValueEliminated is "EL" on notation/duel rounds or a "0" chair vote.
	ValueEliminated
	// ValueAdvance is a "1" chair vote on a repêchage round.
	ValueAdvance
)

// ScoreValue is a normalised criterion value. Construct it with
// ParseScoreValue or the Numeric/Eliminated/Advance/Incomplete helpers.
type ScoreValue struct {
	kind   ValueKind
	points int
}

// Numeric returns a numeric score value.
func Numeric(points int) ScoreValue { return ScoreValue{kind: ValueNumeric, points: points} }

// Eliminated returns the eliminated sentinel.
func Eliminated() ScoreValue { return ScoreValue{kind: ValueEliminated} }

// Advance returns the repêchage advance vote.
func Advance() ScoreValue { return ScoreValue{kind: ValueAdvance} }

// Incomplete returns the not-yet-entered marker.
func Incomplete() ScoreValue { return ScoreValue{} }

// Kind returns the variant tag.
func (v ScoreValue) Kind() ValueKind { return v.kind }

// Points returns the numeric value, or 0 for non-numeric variants.
func (v ScoreValue) Points() int {
	if v.kind != ValueNumeric {
		return 0
	}
	return v.points
}

// IsIncomplete reports whether v blocks completeness.
func (v ScoreValue) IsIncomplete() bool { return v.kind == ValueIncomplete }

// IsEliminated reports whether v is the eliminated sentinel.
func (v ScoreValue) IsEliminated() bool { return v.kind == ValueEliminated }

// IsAdvance reports whether v is a repêchage advance vote.
func (v ScoreValue) IsAdvance() bool { return v.kind == ValueAdvance }

// String renders v in its notation form. Use Raw to store a value.
func (v ScoreValue) String() string {
	switch v.kind {
	case ValueNumeric:
		return strconv.Itoa(v.points)
	case ValueEliminated:
		return RawEliminated
	case ValueAdvance:
		return RawAdvance
	default:
		return RawIncomplete
	}
}

// Raw renders v as stored for a round of the given kind, so that
// ParseScoreValue(kind, v.Raw(kind)) returns v. Eliminated is "0" on
// repêchage rounds and "EL" elsewhere.
func (v ScoreValue) Raw(kind RoundKind) string {
	if v.kind == ValueEliminated && kind == RoundRepechage {
		return RawEliminate
	}
	return v.String()
}

// ParseScoreValue normalises one raw criterion value for a round kind.
// Notation and duel rounds accept 5, 10, 15, 20 and EL; repêchage rounds
// accept 0 and 1. "-" and the empty string are Incomplete on every kind.
// Anything else fails with a *ScoreValueError wrapping ErrInvalidScoreValue.
func ParseScoreValue(kind RoundKind, raw string) (ScoreValue, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == RawIncomplete {
		return Incomplete(), nil
	}

	switch kind {
	case RoundNotation, RoundDuel:
		switch raw {
		case RawEliminated:
			return Eliminated(), nil
		case "5", "10", "15", "20":
			n, _ := strconv.Atoi(raw)
			return Numeric(n), nil
		}
	case RoundRepechage:
		switch raw {
		case RawAdvance:
			return Advance(), nil
		case RawEliminate:
			return Eliminated(), nil
		}
	}

	return ScoreValue{}, &ScoreValueError{Kind: kind, Raw: raw}
}

// ScoreKey is the compound key of a score record.
type ScoreKey struct {
	CandidateID string
	JurorID     string
	RoundID     string
}

// ScoreRecord is one juror's raw input for one candidate on one round.
type ScoreRecord struct {
	CandidateID string    `json:"candidate_id"`
	JurorID     string    `json:"juror_id"`
	RoundID     string    `json:"round_id"`
	Fond        string    `json:"fond"`
	Forme       string    `json:"forme"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the record's compound key.
func (r ScoreRecord) Key() ScoreKey {
	return ScoreKey{CandidateID: r.CandidateID, JurorID: r.JurorID, RoundID: r.RoundID}
}

// Normalize parses both criteria for the given round kind.
func (r ScoreRecord) Normalize(kind RoundKind) (fond, forme ScoreValue, err error) {
	fond, err = ParseScoreValue(kind, r.Fond)
	if err != nil {
		return ScoreValue{}, ScoreValue{}, withCriterion(err, CriterionFond)
	}
	forme, err = ParseScoreValue(kind, r.Forme)
	if err != nil {
		return ScoreValue{}, ScoreValue{}, withCriterion(err, CriterionForme)
	}
	return fond, forme, nil
}

// Complete reports whether the record carries everything its round kind
// needs. Repêchage records only need the chair vote in fond.
func (r ScoreRecord) Complete(kind RoundKind) bool {
	fond, forme, err := r.Normalize(kind)
	if err != nil || fond.IsIncomplete() {
		return false
	}
	if kind == RoundRepechage {
		return true
	}
	return !forme.IsIncomplete()
}

func withCriterion(err error, criterion string) error {
	if sve, ok := err.(*ScoreValueError); ok {
		sve.Criterion = criterion
	}
	return err
}

// ScoreTriple is a candidate's derived score on a round.
// Applied equals Base unless a bonus was granted, in which case it is larger.
// Displayed equals Applied unless an administrator overrode it.
type ScoreTriple struct {
	Base      float64 `json:"score_base"`
	Applied   float64 `json:"score_applique"`
	Displayed float64 `json:"score_affiche"`
}
