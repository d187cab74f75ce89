package domain

// TieBreakPolicy decides the order of candidates with equal displayed scores.
type TieBreakPolicy string

// Supported tie-break policies.
const (
	// TieBreakName orders equal scores by display name, ascending and
	// case-sensitive, falling back to the candidate ID.
	TieBreakName TieBreakPolicy = "name"

	// TieBreakID orders equal scores by candidate ID, ascending.
	TieBreakID TieBreakPolicy = "id"
)

// RankedEntry is one line of a round's classification.
type RankedEntry struct {
	Rank        int         `json:"rank"`
	CandidateID string      `json:"candidate_id"`
	Name        string      `json:"name"`
	Triple      ScoreTriple `json:"score"`
}

// Qualification partitions a round's candidates.
type Qualification struct {
	RoundID    string   `json:"round_id"`
	Qualified  []string `json:"qualified"`
	Eliminated []string `json:"eliminated"`
}
