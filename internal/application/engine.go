// Package application orchestrates the contest rules over a document store:
// score submission, ranking, qualification, jury administration and the
// debounced recompute coordinator.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ahrav/go-joute/infrastructure/rules"
	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

// leaderboardConcurrency bounds the rounds ranked in parallel by Leaderboard.
const leaderboardConcurrency = 4

// EngineOptions holds the engine's collaborators. Every field is optional.
type EngineOptions struct {
	// Logger receives structured engine logs; nil selects slog.Default().
	Logger *slog.Logger
	// Metrics records latencies and counters; nil disables metrics.
	Metrics ports.MetricsCollector
	// Observer brackets operations with spans; nil selects ports.NoopObserver.
	Observer ports.OperationObserver
	// Clock stamps score records and activations; nil selects time.Now.
	Clock func() time.Time
	// NewID generates activation IDs; nil selects random UUIDs.
	NewID func() string
	// Ranking configures tie-breaks; the zero value selects the name policy.
	Ranking rules.RankingConfig
	// Bonus is the winner bonus allow-list; empty disables the bonus.
	Bonus rules.BonusAllowList
}

// Engine computes scores, rankings and qualifications from the store's
// current contents. It holds no contest state of its own, so concurrent
// calls are safe and every call observes the latest committed writes.
type Engine struct {
	store    ports.ContestStore
	registry *AggregatorRegistry
	ranking  *rules.RankingEngine
	gate     *rules.CompletenessGate
	bonus    *rules.BonusApplier

	logger   *slog.Logger
	metrics  ports.MetricsCollector
	observer ports.OperationObserver
	clock    func() time.Time
	newID    func() string
}

// NewEngine wires an engine over store. A nil registry selects the
// built-in aggregators.
// NewEngine returns an error if the ranking configuration is invalid.
func NewEngine(store ports.ContestStore, registry *AggregatorRegistry, opts EngineOptions) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if registry == nil {
		registry = NewAggregatorRegistry()
	}
	if opts.Ranking.TieBreak == "" {
		opts.Ranking = rules.DefaultRankingConfig()
	}
	ranking, err := rules.NewRankingEngine(opts.Ranking)
	if err != nil {
		return nil, fmt.Errorf("invalid ranking configuration: %w", err)
	}

	e := &Engine{
		store:    store,
		registry: registry,
		ranking:  ranking,
		gate:     rules.NewCompletenessGate(),
		bonus:    rules.NewBonusApplier(opts.Bonus),
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		observer: opts.Observer,
		clock:    opts.Clock,
		newID:    opts.NewID,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.observer == nil {
		e.observer = ports.NoopObserver{}
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

// TieBreak returns the engine's tie-break policy.
func (e *Engine) TieBreak() domain.TieBreakPolicy { return e.ranking.TieBreak() }

// begin starts an observed operation and returns the finisher that records
// its latency and outcome.
func (e *Engine) begin(ctx context.Context, op, roundID string) (context.Context, func(error)) {
	start := e.clock()
	labels := map[string]string{"round": roundID}
	ctx, end := e.observer.Start(ctx, op, labels)
	return ctx, func(err error) {
		end(err)
		if e.metrics != nil {
			e.metrics.RecordLatency(op, e.clock().Sub(start), labels)
		}
	}
}

// roundView is one round's snapshot as read from the store.
type roundView struct {
	round      domain.Round
	rounds     []domain.Round
	candidates []domain.Candidate
	jurors     []domain.Juror
	records    []domain.ScoreRecord
}

func (e *Engine) loadRound(ctx context.Context, roundID string) (*roundView, error) {
	round, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if err := round.Quota.Validate(); err != nil {
		return nil, domain.NewRoundError(roundID, "load", err)
	}
	rounds, err := e.store.ListRounds(ctx)
	if err != nil {
		return nil, err
	}
	candidates, err := e.store.ListCandidates(ctx, roundID)
	if err != nil {
		return nil, err
	}
	jurors, err := e.store.ListJurorsOnRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	records, err := e.store.ListScoreRecords(ctx, roundID, "")
	if err != nil {
		return nil, err
	}
	return &roundView{
		round:      round,
		rounds:     rounds,
		candidates: domain.RankableCandidates(candidates),
		jurors:     domain.AuthorizedJurors(round, jurors),
		records:    records,
	}, nil
}

// baseScores aggregates round for candidates. A repêchage round carries
// the previous round's bases, which are aggregated recursively for the
// same candidates.
func (e *Engine) baseScores(
	ctx context.Context,
	round domain.Round,
	rounds []domain.Round,
	candidates []domain.Candidate,
	jurors []domain.Juror,
	records []domain.ScoreRecord,
) (map[string]float64, error) {
	agg, err := e.registry.AggregatorFor(round.Kind)
	if err != nil {
		return nil, err
	}

	var previous map[string]float64
	if round.Kind == domain.RoundRepechage {
		if prev, ok := domain.PreviousRound(rounds, round); ok {
			prevJurors, err := e.store.ListJurorsOnRound(ctx, prev.ID)
			if err != nil {
				return nil, err
			}
			prevRecords, err := e.store.ListScoreRecords(ctx, prev.ID, "")
			if err != nil {
				return nil, err
			}
			previous, err = e.baseScores(ctx, prev, rounds, candidates, domain.AuthorizedJurors(prev, prevJurors), prevRecords)
			if err != nil {
				return nil, fmt.Errorf("previous round %s: %w", prev.ID, err)
			}
		}
	}

	bases, err := agg.Aggregate(domain.AggregationInput{
		Round:      round,
		Candidates: candidates,
		Jurors:     jurors,
		Records:    records,
		Previous:   previous,
	})
	if err != nil {
		return nil, domain.NewRoundError(round.ID, "aggregate", err)
	}
	return bases, nil
}

// triple derives the score triple from a base, logging any bonus grant and
// honouring an administrator's display override.
func (e *Engine) triple(ctx context.Context, roundID, candidateID string, base float64, overrides map[string]float64) (domain.ScoreTriple, error) {
	t, grant := e.bonus.Apply(roundID, candidateID, domain.ScoreTriple{Base: base})
	if grant != nil {
		if err := e.recordActivation(ctx, roundID, *grant); err != nil {
			return domain.ScoreTriple{}, err
		}
	}
	if v, ok := overrides[candidateID]; ok {
		t.Displayed = v
	}
	return t, nil
}

// recordActivation stamps a and appends it. A duplicate key is not an error:
// the entry already exists and the store keeps the first one.
func (e *Engine) recordActivation(ctx context.Context, roundID string, a domain.Activation) error {
	a.ID = e.newID()
	a.At = e.clock().UTC()
	added, err := e.store.AppendActivation(ctx, a)
	if err != nil {
		return fmt.Errorf("failed to log %s activation for %s: %w", a.Type, a.CandidateID, err)
	}
	if !added {
		return nil
	}

	e.logger.InfoContext(ctx, "activation logged",
		"type", a.Type,
		"round_id", roundID,
		"candidate_id", a.CandidateID,
		"source", a.Source,
	)
	if e.metrics != nil && a.Type == domain.ActivationBonusVictoire {
		e.metrics.RecordCounter(ports.MetricBonusGranted, 1, map[string]string{"round": roundID})
	}
	return nil
}

// ComputeScoreTriple returns a candidate's base, applied and displayed
// scores on a round. The candidate need not still be assigned to the round,
// so past rounds remain inspectable after qualification moved them on.
func (e *Engine) ComputeScoreTriple(ctx context.Context, candidateID, roundID string) (t domain.ScoreTriple, err error) {
	ctx, done := e.begin(ctx, "compute_score_triple", roundID)
	defer func() { done(err) }()

	round, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return domain.ScoreTriple{}, err
	}
	candidate, err := e.findCandidate(ctx, candidateID)
	if err != nil {
		return domain.ScoreTriple{}, err
	}
	rounds, err := e.store.ListRounds(ctx)
	if err != nil {
		return domain.ScoreTriple{}, err
	}
	jurors, err := e.store.ListJurorsOnRound(ctx, roundID)
	if err != nil {
		return domain.ScoreTriple{}, err
	}
	records, err := e.store.ListScoreRecords(ctx, roundID, candidateID)
	if err != nil {
		return domain.ScoreTriple{}, err
	}
	overrides, err := e.store.ListDisplayOverrides(ctx, roundID)
	if err != nil {
		return domain.ScoreTriple{}, err
	}

	bases, err := e.baseScores(ctx, round, rounds, []domain.Candidate{candidate}, domain.AuthorizedJurors(round, jurors), records)
	if err != nil {
		return domain.ScoreTriple{}, err
	}
	return e.triple(ctx, roundID, candidateID, bases[candidateID], overrides)
}

// ComputeRanking ranks every non-eliminated candidate assigned to the round
// by displayed score. It runs on incomplete rounds too; callers that need a
// final classification consult IsRoundComplete first.
func (e *Engine) ComputeRanking(ctx context.Context, roundID string) (ranked []domain.RankedEntry, err error) {
	ctx, done := e.begin(ctx, "compute_ranking", roundID)
	defer func() { done(err) }()

	view, err := e.loadRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return e.rank(ctx, view)
}

func (e *Engine) rank(ctx context.Context, view *roundView) ([]domain.RankedEntry, error) {
	roundID := view.round.ID
	overrides, err := e.store.ListDisplayOverrides(ctx, roundID)
	if err != nil {
		return nil, err
	}
	bases, err := e.baseScores(ctx, view.round, view.rounds, view.candidates, view.jurors, view.records)
	if err != nil {
		return nil, err
	}

	scored := make([]rules.Scored, 0, len(view.candidates))
	for _, c := range view.candidates {
		t, err := e.triple(ctx, roundID, c.ID, bases[c.ID], overrides)
		if err != nil {
			return nil, err
		}
		scored = append(scored, rules.Scored{Candidate: c, Triple: t})
	}

	ranked, err := e.ranking.Rank(scored)
	if err != nil {
		return nil, domain.NewRoundError(roundID, "rank", err)
	}

	if e.metrics != nil {
		labels := map[string]string{"round": roundID}
		e.metrics.RecordGauge(ports.MetricRankingSize, float64(len(ranked)), labels)
		for _, r := range ranked {
			e.metrics.RecordHistogram(ports.MetricDisplayedScore, r.Triple.Displayed, labels)
		}
	}
	return ranked, nil
}

// IsRoundComplete reports whether every authorized juror has a complete
// record for every active candidate of the round.
func (e *Engine) IsRoundComplete(ctx context.Context, roundID string) (bool, error) {
	report, err := e.CompletenessReport(ctx, roundID)
	if err != nil {
		return false, err
	}
	return report.Complete, nil
}

// CompletenessReport returns the gate's verdict with the missing
// (candidate, juror) pairs.
func (e *Engine) CompletenessReport(ctx context.Context, roundID string) (report rules.CompletenessReport, err error) {
	ctx, done := e.begin(ctx, "completeness", roundID)
	defer func() { done(err) }()

	view, err := e.loadRound(ctx, roundID)
	if err != nil {
		return rules.CompletenessReport{}, err
	}
	return e.gate.Check(view.round, view.candidates, view.jurors, view.records), nil
}

// ResolveQualification partitions the round's candidates into qualified
// and eliminated without persisting anything. With strict set, an
// incomplete round fails with domain.ErrIncompleteRound.
//
// Notation and duel rounds qualify the top of the ranking by quota. A
// repêchage round follows the chair's votes: advanced candidates qualify,
// everyone else is eliminated, and the count must match the quota.
func (e *Engine) ResolveQualification(ctx context.Context, roundID string, strict bool) (q domain.Qualification, err error) {
	ctx, done := e.begin(ctx, "resolve_qualification", roundID)
	defer func() { done(err) }()

	view, err := e.loadRound(ctx, roundID)
	if err != nil {
		return domain.Qualification{}, err
	}

	if strict {
		report := e.gate.Check(view.round, view.candidates, view.jurors, view.records)
		if !report.Complete {
			e.logger.WarnContext(ctx, "qualification refused on incomplete round",
				"round_id", roundID,
				"missing", len(report.Missing),
				"reason", report.Reason,
			)
			return domain.Qualification{}, domain.NewRoundError(roundID, "resolve_qualification", domain.ErrIncompleteRound)
		}
	}

	if view.round.Kind == domain.RoundRepechage {
		q, err = e.runoffQualification(view)
	} else {
		var ranked []domain.RankedEntry
		ranked, err = e.rank(ctx, view)
		if err != nil {
			return domain.Qualification{}, err
		}
		q, err = e.ranking.Partition(roundID, ranked, view.round.Quota)
	}
	if err != nil {
		return domain.Qualification{}, err
	}

	if e.metrics != nil {
		e.metrics.RecordGauge(ports.MetricQualified, float64(len(q.Qualified)), map[string]string{"round": roundID})
	}
	return q, nil
}

func (e *Engine) runoffQualification(view *roundView) (domain.Qualification, error) {
	chair, ok := domain.ChairOf(view.jurors)
	if !ok {
		return domain.Qualification{}, domain.NewRoundError(view.round.ID, "resolve_qualification", domain.ErrNoChair)
	}
	votes, err := rules.ChairVotes(chair.ID, view.records)
	if err != nil {
		return domain.Qualification{}, domain.NewRoundError(view.round.ID, "resolve_qualification", err)
	}

	var qualified, eliminated []string
	for _, c := range view.candidates {
		if votes[c.ID].IsAdvance() {
			qualified = append(qualified, c.ID)
		} else {
			eliminated = append(eliminated, c.ID)
		}
	}
	return rules.ValidateManualPartition(view.round.ID, view.candidates, view.round.Quota, qualified, eliminated)
}

// CommitQualification applies a partition: qualified candidates move to
// the next round by sequence (or stay put on the last round) and
// eliminated candidates are marked so. On a repêchage round every
// classification is logged with the chair as source.
func (e *Engine) CommitQualification(ctx context.Context, q domain.Qualification) (err error) {
	ctx, done := e.begin(ctx, "commit_qualification", q.RoundID)
	defer func() { done(err) }()

	view, err := e.loadRound(ctx, q.RoundID)
	if err != nil {
		return err
	}
	if _, err := rules.ValidateManualPartition(q.RoundID, view.candidates, view.round.Quota, q.Qualified, q.Eliminated); err != nil {
		return err
	}

	var source string
	if view.round.Kind == domain.RoundRepechage {
		chair, ok := domain.ChairOf(view.jurors)
		if !ok {
			return domain.NewRoundError(q.RoundID, "commit_qualification", domain.ErrNoChair)
		}
		source = chair.ID
	}

	byID := make(map[string]domain.Candidate, len(view.candidates))
	for _, c := range view.candidates {
		byID[c.ID] = c
	}
	next, hasNext := domain.NextRound(view.rounds, view.round)

	// The partition is applied in one batch so a failed write leaves the
	// round as it was.
	updates := make([]domain.Candidate, 0, len(q.Qualified)+len(q.Eliminated))
	for _, id := range q.Qualified {
		c := byID[id]
		c.Status = domain.StatusQualified
		if hasNext {
			c.RoundID = next.ID
		}
		updates = append(updates, c)
	}
	for _, id := range q.Eliminated {
		c := byID[id]
		c.Status = domain.StatusEliminated
		updates = append(updates, c)
	}
	if err := e.store.UpdateCandidates(ctx, updates...); err != nil {
		return fmt.Errorf("failed to commit qualification of round %s: %w", q.RoundID, err)
	}

	if source != "" {
		for _, id := range slices.Concat(q.Qualified, q.Eliminated) {
			if err := e.recordActivation(ctx, q.RoundID, domain.Activation{
				Type:        domain.ActivationRunoffClassified,
				CandidateID: id,
				Source:      source,
			}); err != nil {
				return err
			}
		}
	}

	e.logger.InfoContext(ctx, "qualification committed",
		"round_id", q.RoundID,
		"qualified", len(q.Qualified),
		"eliminated", len(q.Eliminated),
		"next_round_id", next.ID,
	)
	return nil
}

// CommitRunoffPartition commits a chair's explicit partition of a repêchage
// round. chairID must be the current chair.
func (e *Engine) CommitRunoffPartition(ctx context.Context, roundID, chairID string, qualified, eliminated []string) (domain.Qualification, error) {
	round, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return domain.Qualification{}, err
	}
	if round.Kind != domain.RoundRepechage {
		return domain.Qualification{}, fmt.Errorf("%w: round %s is %s, not %s",
			domain.ErrInvalidPartition, roundID, round.Kind, domain.RoundRepechage)
	}
	chair, err := e.chair(ctx)
	if err != nil {
		return domain.Qualification{}, err
	}
	if chair.ID != chairID {
		return domain.Qualification{}, fmt.Errorf("juror %s is not the chair: %w", chairID, domain.ErrUnauthorizedJuror)
	}

	q := domain.Qualification{RoundID: roundID, Qualified: qualified, Eliminated: eliminated}
	if err := e.CommitQualification(ctx, q); err != nil {
		return domain.Qualification{}, err
	}
	return q, nil
}

// SubmitScore validates and stores one juror's record. Raw values are
// stored in canonical form; "" becomes "-".
func (e *Engine) SubmitScore(ctx context.Context, rec domain.ScoreRecord) (err error) {
	ctx, done := e.begin(ctx, "submit_score", rec.RoundID)
	defer func() { done(err) }()

	round, err := e.store.GetRound(ctx, rec.RoundID)
	if err != nil {
		return err
	}
	fond, forme, err := rec.Normalize(round.Kind)
	if err != nil {
		return err
	}

	jurors, err := e.store.ListJurorsOnRound(ctx, rec.RoundID)
	if err != nil {
		return err
	}
	authorized := slices.ContainsFunc(domain.AuthorizedJurors(round, jurors), func(j domain.Juror) bool {
		return j.ID == rec.JurorID
	})
	if !authorized {
		return fmt.Errorf("juror %s on round %s: %w", rec.JurorID, rec.RoundID, domain.ErrUnauthorizedJuror)
	}

	candidates, err := e.store.ListCandidates(ctx, rec.RoundID)
	if err != nil {
		return err
	}
	onRound := slices.ContainsFunc(domain.RankableCandidates(candidates), func(c domain.Candidate) bool {
		return c.ID == rec.CandidateID
	})
	if !onRound {
		return fmt.Errorf("candidate %s on round %s: %w", rec.CandidateID, rec.RoundID, domain.ErrNotFound)
	}

	rec.Fond, rec.Forme = fond.Raw(round.Kind), forme.Raw(round.Kind)
	rec.UpdatedAt = e.clock().UTC()
	if err := e.store.PutScoreRecord(ctx, rec); err != nil {
		return err
	}

	e.logger.DebugContext(ctx, "score submitted",
		"round_id", rec.RoundID,
		"candidate_id", rec.CandidateID,
		"juror_id", rec.JurorID,
	)
	return nil
}

// ResetCandidate revives a candidate onto roundID with the reset status,
// making an eliminated candidate rankable again.
func (e *Engine) ResetCandidate(ctx context.Context, candidateID, roundID string) (err error) {
	ctx, done := e.begin(ctx, "reset_candidate", roundID)
	defer func() { done(err) }()

	if _, err := e.store.GetRound(ctx, roundID); err != nil {
		return err
	}
	c, err := e.findCandidate(ctx, candidateID)
	if err != nil {
		return err
	}
	c.Status = domain.StatusReset
	c.RoundID = roundID
	if err := e.store.UpdateCandidates(ctx, c); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "candidate reset", "candidate_id", candidateID, "round_id", roundID)
	return nil
}

// SetDisplayOverride replaces the displayed score of a candidate on a round.
func (e *Engine) SetDisplayOverride(ctx context.Context, roundID, candidateID string, score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return fmt.Errorf("%w: override %v", rules.ErrInvalidScore, score)
	}
	if _, err := e.store.GetRound(ctx, roundID); err != nil {
		return err
	}
	if _, err := e.findCandidate(ctx, candidateID); err != nil {
		return err
	}
	return e.store.SetDisplayOverride(ctx, roundID, candidateID, score)
}

// DuelOutcomes decides every pairing of a duel round from base scores.
func (e *Engine) DuelOutcomes(ctx context.Context, roundID string) (outcomes []domain.DuelOutcome, err error) {
	ctx, done := e.begin(ctx, "duel_outcomes", roundID)
	defer func() { done(err) }()

	round, err := e.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.Kind != domain.RoundDuel {
		return nil, domain.NewRoundError(roundID, "duel_outcomes", rules.ErrWrongRoundKind)
	}

	pairings, err := e.store.ListDuels(ctx, roundID)
	if err != nil {
		return nil, err
	}
	all, err := e.store.ListCandidates(ctx, "")
	if err != nil {
		return nil, err
	}
	inDuel := make(map[string]struct{}, 2*len(pairings))
	for _, p := range pairings {
		inDuel[p.CandidateA] = struct{}{}
		inDuel[p.CandidateB] = struct{}{}
	}
	candidates := slices.DeleteFunc(all, func(c domain.Candidate) bool {
		_, ok := inDuel[c.ID]
		return !ok
	})

	jurors, err := e.store.ListJurorsOnRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	records, err := e.store.ListScoreRecords(ctx, roundID, "")
	if err != nil {
		return nil, err
	}
	bases, err := e.baseScores(ctx, round, nil, candidates, domain.AuthorizedJurors(round, jurors), records)
	if err != nil {
		return nil, err
	}
	return rules.ResolveDuels(pairings, bases, candidates, e.ranking.TieBreak())
}

// RoundStanding is one round's entry in the leaderboard.
type RoundStanding struct {
	Round    domain.Round         `json:"round"`
	Entries  []domain.RankedEntry `json:"entries"`
	Complete bool                 `json:"complete"`
}

// Leaderboard ranks every round concurrently, in sequence order.
func (e *Engine) Leaderboard(ctx context.Context) ([]RoundStanding, error) {
	rounds, err := e.store.ListRounds(ctx)
	if err != nil {
		return nil, err
	}

	standings := make([]RoundStanding, len(rounds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(leaderboardConcurrency)
	for i, r := range rounds {
		g.Go(func() error {
			view, err := e.loadRound(gctx, r.ID)
			if err != nil {
				return err
			}
			ranked, err := e.rank(gctx, view)
			if err != nil {
				return err
			}
			report := e.gate.Check(view.round, view.candidates, view.jurors, view.records)
			standings[i] = RoundStanding{Round: r, Entries: ranked, Complete: report.Complete}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return standings, nil
}

func (e *Engine) findCandidate(ctx context.Context, candidateID string) (domain.Candidate, error) {
	all, err := e.store.ListCandidates(ctx, "")
	if err != nil {
		return domain.Candidate{}, err
	}
	i := slices.IndexFunc(all, func(c domain.Candidate) bool { return c.ID == candidateID })
	if i < 0 {
		return domain.Candidate{}, fmt.Errorf("candidate %s: %w", candidateID, domain.ErrNotFound)
	}
	return all[i], nil
}

func (e *Engine) chair(ctx context.Context) (domain.Juror, error) {
	jurors, err := e.store.ListJurors(ctx)
	if err != nil {
		return domain.Juror{}, err
	}
	chair, ok := domain.ChairOf(jurors)
	if !ok {
		return domain.Juror{}, domain.ErrNoChair
	}
	return chair, nil
}

// isCallerError reports whether err stems from bad input rather than the
// store, for log level selection.
func isCallerError(err error) bool {
	return errors.Is(err, domain.ErrInvalidScoreValue) ||
		errors.Is(err, domain.ErrUnauthorizedJuror) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInvalidPartition) ||
		errors.Is(err, domain.ErrIncompleteRound)
}
