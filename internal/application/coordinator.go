package application

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahrav/go-joute/infrastructure/rules"
	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

// CoordinatorState is a round's position in the recompute cycle.
type CoordinatorState int

// Recompute states.
const (
	// StateIdle means no recompute is scheduled.
	StateIdle CoordinatorState = iota
	// StatePending means a recompute is armed and waits for the debounce
	// window to elapse without further triggers.
	StatePending
	// StateComputing means a recompute is running; triggers are dropped.
	StateComputing
)

// String returns the state name used in logs.
func (s CoordinatorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateComputing:
		return "computing"
	default:
		return "unknown"
	}
}

// RankingSink receives the classification of a round whose scores are
// complete. It runs on the coordinator's timer goroutine.
type RankingSink func(ctx context.Context, roundID string, ranked []domain.RankedEntry, q domain.Qualification)

// RoundEvaluator is the engine surface the coordinator drives.
type RoundEvaluator interface {
	SubmitScore(ctx context.Context, rec domain.ScoreRecord) error
	CompletenessReport(ctx context.Context, roundID string) (rules.CompletenessReport, error)
	ComputeRanking(ctx context.Context, roundID string) ([]domain.RankedEntry, error)
	ResolveQualification(ctx context.Context, roundID string, strict bool) (domain.Qualification, error)
}

var _ RoundEvaluator = (*Engine)(nil)

// CoordinatorOptions holds the coordinator's settings.
type CoordinatorOptions struct {
	// Debounce is the settling window; zero selects DefaultDebounce.
	Debounce time.Duration
	// Sink receives complete classifications; nil discards them.
	Sink    RankingSink
	Logger  *slog.Logger
	Metrics ports.MetricsCollector
	// SessionID tags the coordinator's own writes; empty selects a random UUID.
	SessionID string
}

type roundSlot struct {
	state CoordinatorState
	timer *time.Timer
	// gen invalidates timers superseded by a later trigger.
	gen uint64
}

// Coordinator debounces change notifications per round and, once a round
// settles, re-checks completeness and publishes its classification.
//
// Each round moves Idle → Pending → Computing → Idle. A trigger while
// Pending restarts the window. A trigger while Computing is dropped and
// counted; the caller re-triggers later. Change events carrying the
// coordinator's own session are ignored, since SubmitLocal schedules its
// recompute directly.
type Coordinator struct {
	eval     RoundEvaluator
	window   time.Duration
	sink     RankingSink
	logger   *slog.Logger
	metrics  ports.MetricsCollector
	session  string
	mu       sync.Mutex
	rounds   map[string]*roundSlot
	cancels  []func()
	closed   bool
	inflight sync.WaitGroup
}

// NewCoordinator returns an idle coordinator over eval.
func NewCoordinator(eval RoundEvaluator, opts CoordinatorOptions) *Coordinator {
	c := &Coordinator{
		eval:    eval,
		window:  opts.Debounce,
		sink:    opts.Sink,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		session: opts.SessionID,
		rounds:  make(map[string]*roundSlot),
	}
	if c.window <= 0 {
		c.window = DefaultDebounce
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.session == "" {
		c.session = uuid.NewString()
	}
	return c
}

// SessionID returns the session tag of the coordinator's own writes.
func (c *Coordinator) SessionID() string { return c.session }

// Attach subscribes to feed until Close.
func (c *Coordinator) Attach(feed ports.ChangeFeed) {
	cancel := feed.Subscribe(c.Notify)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		cancel()
		return
	}
	c.cancels = append(c.cancels, cancel)
}

// Notify handles a change event from the store. Echoes of the
// coordinator's own writes and events that cannot affect a ranking are
// ignored. Juror events carry no round: an assignment or chair change may
// complete any round, so every tracked round is scheduled.
func (c *Coordinator) Notify(ev ports.ChangeEvent) {
	if ev.SessionID == c.session {
		return
	}
	switch ev.Collection {
	case ports.CollectionScores, ports.CollectionCandidates, ports.CollectionOverrides,
		ports.CollectionDuels, ports.CollectionRounds:
		if ev.RoundID != "" {
			c.Trigger(ev.RoundID)
		}
	case ports.CollectionJurors:
		for _, id := range c.trackedRounds() {
			c.Trigger(id)
		}
	}
}

// Track registers rounds as idle so juror changes reach them before any
// score has been written.
func (c *Coordinator) Track(roundIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range roundIDs {
		if _, ok := c.rounds[id]; !ok {
			c.rounds[id] = &roundSlot{}
		}
	}
}

func (c *Coordinator) trackedRounds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Sorted(maps.Keys(c.rounds))
}

// SubmitLocal stores rec under the coordinator's session and schedules the
// round's recompute.
func (c *Coordinator) SubmitLocal(ctx context.Context, rec domain.ScoreRecord) error {
	if err := c.eval.SubmitScore(ports.WithSession(ctx, c.session), rec); err != nil {
		return err
	}
	c.Trigger(rec.RoundID)
	return nil
}

// Trigger schedules a recompute of roundID. It reports false when the
// trigger was dropped because a recompute is running or the coordinator
// is closed.
func (c *Coordinator) Trigger(roundID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	slot, ok := c.rounds[roundID]
	if !ok {
		slot = &roundSlot{}
		c.rounds[roundID] = slot
	}

	switch slot.state {
	case StateComputing:
		c.logger.Debug("recompute trigger dropped", "round_id", roundID, "state", slot.state)
		if c.metrics != nil {
			c.metrics.RecordCounter(ports.MetricTriggerDropped, 1, map[string]string{"round": roundID})
		}
		return false
	case StatePending:
		slot.timer.Stop()
	}

	slot.state = StatePending
	slot.gen++
	gen := slot.gen
	slot.timer = time.AfterFunc(c.window, func() { c.fire(roundID, gen) })
	return true
}

// State returns the round's current state.
func (c *Coordinator) State(roundID string) CoordinatorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot, ok := c.rounds[roundID]; ok {
		return slot.state
	}
	return StateIdle
}

// Close stops pending timers and subscriptions and waits for a running
// recompute to finish. Later triggers are dropped.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, slot := range c.rounds {
		if slot.state == StatePending {
			slot.timer.Stop()
			slot.state = StateIdle
		}
	}
	cancels := c.cancels
	c.cancels = nil
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	c.inflight.Wait()
}

func (c *Coordinator) fire(roundID string, gen uint64) {
	c.mu.Lock()
	slot := c.rounds[roundID]
	if c.closed || slot.gen != gen || slot.state != StatePending {
		c.mu.Unlock()
		return
	}
	slot.state = StateComputing
	c.inflight.Add(1)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		slot.state = StateIdle
		c.mu.Unlock()
		c.inflight.Done()
	}()

	outcome := c.recompute(ports.WithSession(context.Background(), c.session), roundID)
	if c.metrics != nil {
		c.metrics.RecordCounter(ports.MetricRecomputeTotal, 1, map[string]string{"round": roundID, "outcome": outcome})
	}
}

// recompute re-checks completeness once and publishes the classification
// of a complete round. It returns the outcome label.
func (c *Coordinator) recompute(ctx context.Context, roundID string) string {
	report, err := c.eval.CompletenessReport(ctx, roundID)
	if err != nil {
		c.logError(ctx, "completeness check failed", roundID, err)
		return "error"
	}
	if !report.Complete {
		c.logger.DebugContext(ctx, "round not complete",
			"round_id", roundID,
			"missing", len(report.Missing),
			"reason", report.Reason,
		)
		return "incomplete"
	}

	ranked, err := c.eval.ComputeRanking(ctx, roundID)
	if err != nil {
		c.logError(ctx, "ranking failed", roundID, err)
		return "error"
	}
	q, err := c.eval.ResolveQualification(ctx, roundID, false)
	if err != nil {
		c.logError(ctx, "qualification failed", roundID, err)
		return "error"
	}

	c.logger.InfoContext(ctx, "round classified",
		"round_id", roundID,
		"ranked", len(ranked),
		"qualified", len(q.Qualified),
	)
	if c.sink != nil {
		c.sink(ctx, roundID, ranked, q)
	}
	return "ranked"
}

func (c *Coordinator) logError(ctx context.Context, msg, roundID string, err error) {
	if isCallerError(err) {
		c.logger.WarnContext(ctx, msg, "round_id", roundID, "error", err)
		return
	}
	c.logger.ErrorContext(ctx, msg, "round_id", roundID, "error", err)
}
