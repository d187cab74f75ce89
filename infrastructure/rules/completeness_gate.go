package rules

import (
	"github.com/ahrav/go-joute/internal/domain"
)

// MissingScore names a (candidate, juror) pair without a complete record.
type MissingScore struct {
	CandidateID string `json:"candidate_id"`
	JurorID     string `json:"juror_id"`
}

// CompletenessReport is the gate's verdict on one round.
type CompletenessReport struct {
	RoundID  string         `json:"round_id"`
	Complete bool           `json:"complete"`
	Missing  []MissingScore `json:"missing,omitempty"`

	// Reason explains an incomplete verdict that has no missing pairs,
	// such as a round without authorized jurors.
	Reason string `json:"reason,omitempty"`
}

// CompletenessGate decides whether automatic qualification may run.
// It is advisory: a forced qualification may ignore it.
type CompletenessGate struct{}

// NewCompletenessGate returns the gate.
func NewCompletenessGate() *CompletenessGate { return &CompletenessGate{} }

// CandidateComplete reports whether every juror authorized on round has a
// complete record for candidateID.
func (g *CompletenessGate) CandidateComplete(
	round domain.Round,
	candidateID string,
	jurors []domain.Juror,
	records []domain.ScoreRecord,
) bool {
	authorized := domain.AuthorizedJurors(round, jurors)
	if len(authorized) == 0 {
		return false
	}
	byKey := latestRecords(records, jurorSet(authorized))
	for _, j := range authorized {
		rec, ok := byKey[domain.ScoreKey{CandidateID: candidateID, JurorID: j.ID, RoundID: round.ID}]
		if !ok || !rec.Complete(round.Kind) {
			return false
		}
	}
	return true
}

// Check evaluates every rankable candidate on the round. A round with no
// authorized juror or no rankable candidate is reported incomplete so that
// automatic triggers never commit an empty classification.
func (g *CompletenessGate) Check(
	round domain.Round,
	candidates []domain.Candidate,
	jurors []domain.Juror,
	records []domain.ScoreRecord,
) CompletenessReport {
	report := CompletenessReport{RoundID: round.ID}

	authorized := domain.AuthorizedJurors(round, jurors)
	if len(authorized) == 0 {
		if round.Kind == domain.RoundRepechage {
			report.Reason = "no chair juror"
		} else {
			report.Reason = "no authorized juror"
		}
		return report
	}

	active := domain.RankableCandidates(candidates)
	if len(active) == 0 {
		report.Reason = "no active candidate"
		return report
	}

	byKey := latestRecords(records, jurorSet(authorized))
	for _, c := range active {
		for _, j := range authorized {
			rec, ok := byKey[domain.ScoreKey{CandidateID: c.ID, JurorID: j.ID, RoundID: round.ID}]
			if !ok || !rec.Complete(round.Kind) {
				report.Missing = append(report.Missing, MissingScore{CandidateID: c.ID, JurorID: j.ID})
			}
		}
	}

	report.Complete = len(report.Missing) == 0
	return report
}
