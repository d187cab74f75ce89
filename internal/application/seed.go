package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

// SeedContest writes a loaded contest into store. Rounds and duels are
// upserted so configuration edits apply on restart. Candidates and jurors
// are only inserted when absent, preserving statuses, round moves and
// credentials changed since the last run. Candidate creation times are
// spaced from now so configuration order is kept.
func SeedContest(ctx context.Context, store ports.ContestStore, jury *JuryService, contest *Contest, now time.Time) error {
	for _, r := range contest.Rounds {
		if err := store.PutRound(ctx, r); err != nil {
			return fmt.Errorf("failed to seed round %s: %w", r.ID, err)
		}
	}
	for _, d := range contest.Duels {
		if err := store.PutDuel(ctx, d); err != nil {
			return fmt.Errorf("failed to seed duel %s: %w", d.ID, err)
		}
	}

	existing, err := store.ListCandidates(ctx, "")
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		known[c.ID] = struct{}{}
	}
	for i, cc := range contest.Candidates {
		if _, ok := known[cc.ID]; ok {
			continue
		}
		c := domain.Candidate{
			ID:        cc.ID,
			Name:      cc.Name,
			RoundID:   cc.Round,
			Status:    domain.StatusActive,
			CreatedAt: now.UTC().Add(time.Duration(i) * time.Millisecond),
		}
		if err := store.PutCandidate(ctx, c); err != nil {
			return fmt.Errorf("failed to seed candidate %s: %w", c.ID, err)
		}
	}

	for _, jc := range contest.Jurors {
		_, err := jury.AddJuror(ctx, NewJuror{
			ID:         jc.ID,
			Name:       jc.Name,
			Credential: jc.Credential,
			Rounds:     jc.Rounds,
			Chair:      jc.Chair,
		})
		if err != nil && !errors.Is(err, ErrJurorExists) {
			return fmt.Errorf("failed to seed juror %s: %w", jc.ID, err)
		}
	}
	return nil
}
