// Package rules implements the contest's scoring rules: per-kind round
// aggregation, the winner bonus, ranking with quota partitioning and the
// completeness gate. Everything here is pure and synchronous; callers
// supply in-memory snapshots read from the store.
package rules

import (
	"errors"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-joute/internal/domain"
)

// Common errors returned by the rules.
var (
	// ErrWrongRoundKind is returned when an aggregator receives a round of another kind.
	ErrWrongRoundKind = errors.New("aggregator does not handle this round kind")

	// ErrInvalidScore is returned when a score to rank is NaN or infinite.
	ErrInvalidScore = errors.New("score is not a finite number")
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// roundTo2 rounds half away from zero to two decimal places.
func roundTo2(v float64) float64 { return math.Round(v*100) / 100 }

// latestRecords keeps one record per key, the most recently updated, and
// drops records from jurors outside allowed.
func latestRecords(records []domain.ScoreRecord, allowed map[string]struct{}) map[domain.ScoreKey]domain.ScoreRecord {
	out := make(map[domain.ScoreKey]domain.ScoreRecord, len(records))
	for _, rec := range records {
		if _, ok := allowed[rec.JurorID]; !ok {
			continue
		}
		k := rec.Key()
		if prev, ok := out[k]; ok && prev.UpdatedAt.After(rec.UpdatedAt) {
			continue
		}
		out[k] = rec
	}
	return out
}

func jurorSet(jurors []domain.Juror) map[string]struct{} {
	set := make(map[string]struct{}, len(jurors))
	for _, j := range jurors {
		set[j.ID] = struct{}{}
	}
	return set
}
