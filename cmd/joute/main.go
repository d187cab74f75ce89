// Command joute loads a contest description into SQLite and drives the
// scoring engine from the command line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-joute/infrastructure/middleware"
	"github.com/ahrav/go-joute/infrastructure/store"
	"github.com/ahrav/go-joute/internal/application"
)

// Store guard settings. SQLite reports SQLITE_BUSY as a retryable error.
const (
	storeMaxRetries = 3
	storeBaseDelay  = 50 * time.Millisecond
	storeMaxDelay   = time.Second
	storeWriteRate  = rate.Limit(200)
	storeWriteBurst = 50
)

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := parseFlags(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "joute:", err)
		os.Exit(2)
	}

	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout); err != nil {
		logger.Error("command failed", "command", cfg.Command, "error", err)
		stop()
		os.Exit(1)
	}
}

// app holds the wired components shared by every command.
type app struct {
	cfg      cliConfig
	logger   *slog.Logger
	out      io.Writer
	contest  *application.Contest
	db       *store.SQLiteStore
	store    *store.GuardedStore
	jury     *application.JuryService
	engine   *application.Engine
	metrics  *middleware.PrometheusMetrics
	registry *prometheus.Registry
}

// newApp loads the contest, opens the database and seeds it.
func newApp(ctx context.Context, cfg cliConfig, logger *slog.Logger, out io.Writer) (*app, error) {
	loader, err := application.NewConfigLoader()
	if err != nil {
		return nil, err
	}
	contest, err := loader.LoadFromFile(ctx, cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	db, err := store.OpenSQLite(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	guarded := store.Wrap(db,
		store.RetryMiddleware(storeMaxRetries, storeBaseDelay, storeMaxDelay),
		store.RateLimitMiddleware(storeWriteRate, storeWriteBurst),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewPrometheusMetrics(registry)

	jury := application.NewJuryService(guarded, application.JuryOptions{Logger: logger})
	if err := application.SeedContest(ctx, guarded, jury, contest, time.Now()); err != nil {
		_ = db.Close()
		return nil, err
	}

	engine, err := application.NewEngine(guarded, nil, application.EngineOptions{
		Logger:   logger,
		Metrics:  metrics,
		Observer: middleware.NewOTelObserver(),
		Ranking:  contest.Ranking,
		Bonus:    contest.Bonus,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.InfoContext(ctx, "contest loaded",
		"contest", contest.Name,
		"rounds", len(contest.Rounds),
		"candidates", len(contest.Candidates),
		"db", cfg.DatabaseURL,
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		contest:  contest,
		db:       db,
		store:    guarded,
		jury:     jury,
		engine:   engine,
		metrics:  metrics,
		registry: registry,
	}, nil
}

func (a *app) Close() error { return a.db.Close() }

// run executes cfg.Command and writes its result to out.
func run(ctx context.Context, cfg cliConfig, logger *slog.Logger, out io.Writer) error {
	a, err := newApp(ctx, cfg, logger, out)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Timeout > 0 && cfg.Command != "serve" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	switch cfg.Command {
	case "rank":
		return a.rank(ctx, cfg.Args[0])
	case "commit":
		return a.commit(ctx, cfg.Args[0])
	case "report":
		return a.report(ctx, cfg.Args[0])
	case "duels":
		return a.duels(ctx, cfg.Args[0])
	case "leaderboard":
		return a.leaderboard(ctx)
	case "import":
		return a.importScores(ctx, cfg.Args[0])
	case "serve":
		return a.serve(ctx)
	default:
		return fmt.Errorf("unknown command %q", cfg.Command)
	}
}
