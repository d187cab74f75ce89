package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-joute/internal/application"
	"github.com/ahrav/go-joute/internal/domain"
)

// roundResult is the printed form of a classified round.
type roundResult struct {
	RoundID       string                `json:"round_id"`
	Ranking       []domain.RankedEntry  `json:"ranking"`
	Qualification *domain.Qualification `json:"qualification,omitempty"`
	Complete      bool                  `json:"complete"`
}

func (a *app) rank(ctx context.Context, roundID string) error {
	ranked, err := a.engine.ComputeRanking(ctx, roundID)
	if err != nil {
		return err
	}
	complete, err := a.engine.IsRoundComplete(ctx, roundID)
	if err != nil {
		return err
	}
	res := roundResult{RoundID: roundID, Ranking: ranked, Complete: complete}
	if complete || !a.cfg.Strict {
		q, err := a.engine.ResolveQualification(ctx, roundID, a.cfg.Strict)
		if err != nil {
			return err
		}
		res.Qualification = &q
	}
	return a.print(res, func(w io.Writer) { writeRoundResult(w, res) })
}

func (a *app) commit(ctx context.Context, roundID string) error {
	q, err := a.engine.ResolveQualification(ctx, roundID, a.cfg.Strict)
	if err != nil {
		return err
	}
	if err := a.engine.CommitQualification(ctx, q); err != nil {
		return err
	}
	return a.print(q, func(w io.Writer) {
		fmt.Fprintf(w, "round %s committed\n", q.RoundID)
		fmt.Fprintf(w, "qualified:  %s\n", strings.Join(q.Qualified, ", "))
		fmt.Fprintf(w, "eliminated: %s\n", strings.Join(q.Eliminated, ", "))
	})
}

func (a *app) report(ctx context.Context, roundID string) error {
	report, err := a.engine.CompletenessReport(ctx, roundID)
	if err != nil {
		return err
	}
	return a.print(report, func(w io.Writer) {
		if report.Complete {
			fmt.Fprintf(w, "round %s is complete\n", report.RoundID)
			return
		}
		fmt.Fprintf(w, "round %s is incomplete", report.RoundID)
		if report.Reason != "" {
			fmt.Fprintf(w, ": %s", report.Reason)
		}
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CANDIDATE\tJUROR")
		for _, m := range report.Missing {
			fmt.Fprintf(tw, "%s\t%s\n", m.CandidateID, m.JurorID)
		}
		tw.Flush()
	})
}

func (a *app) duels(ctx context.Context, roundID string) error {
	outcomes, err := a.engine.DuelOutcomes(ctx, roundID)
	if err != nil {
		return err
	}
	return a.print(outcomes, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DUEL\tWINNER\tSCORE\tLOSER\tSCORE\tTIED")
		for _, o := range outcomes {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%.2f\t%t\n", o.DuelID, o.WinnerID, o.Winner, o.LoserID, o.Loser, o.Tied)
		}
		tw.Flush()
	})
}

func (a *app) leaderboard(ctx context.Context) error {
	standings, err := a.engine.Leaderboard(ctx)
	if err != nil {
		return err
	}
	return a.print(standings, func(w io.Writer) {
		for i, s := range standings {
			if i > 0 {
				fmt.Fprintln(w)
			}
			writeRoundResult(w, roundResult{RoundID: s.Round.ID, Ranking: s.Entries, Complete: s.Complete})
		}
	})
}

// scoreFile is the YAML layout accepted by import.
type scoreFile struct {
	Scores []struct {
		Round     string `yaml:"round"`
		Candidate string `yaml:"candidate"`
		Juror     string `yaml:"juror"`
		Fond      string `yaml:"fond"`
		Forme     string `yaml:"forme"`
	} `yaml:"scores"`
}

// importScores stores every record, then lets a coordinator classify each
// touched round and prints those that are complete.
func (a *app) importScores(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open score file: %w", err)
	}
	defer f.Close()

	var in scoreFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return fmt.Errorf("failed to parse score file: %w", err)
	}

	var mu sync.Mutex
	coord := application.NewCoordinator(a.engine, application.CoordinatorOptions{
		Debounce: a.contest.Debounce,
		Logger:   a.logger,
		Metrics:  a.metrics,
		Sink: func(_ context.Context, roundID string, ranked []domain.RankedEntry, q domain.Qualification) {
			mu.Lock()
			defer mu.Unlock()
			res := roundResult{RoundID: roundID, Ranking: ranked, Qualification: &q, Complete: true}
			if err := a.print(res, func(w io.Writer) { writeRoundResult(w, res) }); err != nil {
				a.logger.Error("failed to print round", "round_id", roundID, "error", err)
			}
		},
	})
	defer coord.Close()

	rounds := make(map[string]struct{})
	for i, s := range in.Scores {
		rec := domain.ScoreRecord{
			CandidateID: s.Candidate,
			JurorID:     s.Juror,
			RoundID:     s.Round,
			Fond:        s.Fond,
			Forme:       s.Forme,
		}
		if err := a.engine.SubmitScore(ctx, rec); err != nil {
			return fmt.Errorf("score %d (%s/%s/%s): %w", i+1, s.Round, s.Candidate, s.Juror, err)
		}
		rounds[s.Round] = struct{}{}
	}
	a.logger.InfoContext(ctx, "scores imported", "records", len(in.Scores), "rounds", len(rounds))

	// One recompute per round once every record is stored.
	for id := range rounds {
		coord.Trigger(id)
	}
	return waitSettled(ctx, coord, rounds, a.contest.Debounce)
}

// waitSettled polls until every round in rounds is idle again.
func waitSettled(ctx context.Context, coord *application.Coordinator, rounds map[string]struct{}, window time.Duration) error {
	ticker := time.NewTicker(max(window/2, time.Millisecond))
	defer ticker.Stop()
	for {
		settled := true
		for id := range rounds {
			if coord.State(id) != application.StateIdle {
				settled = false
				break
			}
		}
		if settled {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// print writes v as indented JSON or through text.
func (a *app) print(v any, text func(io.Writer)) error {
	if a.cfg.Output == "json" {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(a.out)
	return nil
}

func writeRoundResult(w io.Writer, res roundResult) {
	state := "incomplete"
	if res.Complete {
		state = "complete"
	}
	fmt.Fprintf(w, "round %s (%s)\n", res.RoundID, state)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCANDIDATE\tNAME\tBASE\tAPPLIED\tDISPLAYED")
	for _, e := range res.Ranking {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%.2f\n",
			e.Rank, e.CandidateID, e.Name, e.Triple.Base, e.Triple.Applied, e.Triple.Displayed)
	}
	tw.Flush()

	if q := res.Qualification; q != nil {
		fmt.Fprintf(w, "qualified:  %s\n", strings.Join(q.Qualified, ", "))
		fmt.Fprintf(w, "eliminated: %s\n", strings.Join(q.Eliminated, ", "))
	}
}
