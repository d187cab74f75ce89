package domain

// DuelPairing is one head-to-head match on a duel round.
type DuelPairing struct {
	ID         string `json:"id"`
	RoundID    string `json:"round_id"`
	CandidateA string `json:"candidate_a"`
	CandidateB string `json:"candidate_b"`
}

// DuelOutcome is the result of one pairing. When Tied is set, WinnerID is
// the candidate first in tie-break order.
type DuelOutcome struct {
	DuelID   string  `json:"duel_id"`
	WinnerID string  `json:"winner_id"`
	LoserID  string  `json:"loser_id"`
	Winner   float64 `json:"winner_score"`
	Loser    float64 `json:"loser_score"`
	Tied     bool    `json:"tied"`
}
