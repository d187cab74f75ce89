package domain

// AggregationInput is an in-memory snapshot of one round, as read from the
// store. It may be a partial view of concurrent writes; callers consult the
// completeness gate before trusting the result.
type AggregationInput struct {
	// Round is the round being aggregated.
	Round Round

	// Candidates are the candidates to score. Candidates without records
	// still receive a base score of 0.
	Candidates []Candidate

	// Jurors are the jurors whose records count on the round.
	Jurors []Juror

	// Records are the round's score records. Records from jurors not in
	// Jurors are ignored.
	Records []ScoreRecord

	// Previous holds base scores of the preceding round, keyed by candidate
	// ID. Only repêchage aggregation reads it.
	Previous map[string]float64
}

// Aggregator defines the interface for combining all jurors' normalised
// contributions on a round into one base score per candidate.
// Implementations exist per RoundKind.
type Aggregator interface {
	// Kind returns the round kind this aggregator handles.
	Kind() RoundKind

	// Aggregate returns the base score of every candidate in the input,
	// keyed by candidate ID.
	//
	// It fails with ErrInvalidScoreValue when a record holds a value outside
	// the round kind's permitted set. It never retries.
	//
	// Example:
	//
	//	bases, err := aggregator.Aggregate(domain.AggregationInput{
	//	    Round:      round,
	//	    Candidates: candidates,
	//	    Jurors:     jurors,
	//	    Records:    records,
	//	})
	Aggregate(in AggregationInput) (map[string]float64, error)
}
