package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahrav/go-joute/internal/application"
	"github.com/ahrav/go-joute/internal/domain"
)

// credentialHeader carries the juror's secret on score submissions.
const credentialHeader = "X-Juror-Credential"

// serve exposes metrics, rankings and score submission until ctx ends.
// Submissions go through a coordinator, which logs every round that
// settles complete.
func (a *app) serve(ctx context.Context) error {
	coord := application.NewCoordinator(a.engine, application.CoordinatorOptions{
		Debounce: a.contest.Debounce,
		Logger:   a.logger,
		Metrics:  a.metrics,
		Sink: func(ctx context.Context, roundID string, ranked []domain.RankedEntry, q domain.Qualification) {
			a.logger.InfoContext(ctx, "round classified",
				"round_id", roundID,
				"ranked", len(ranked),
				"qualified", q.Qualified,
				"eliminated", q.Eliminated,
			)
		},
	})
	coord.Track(a.contest.RoundIDs()...)
	coord.Attach(a.store)
	defer coord.Close()

	server := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           a.routes(coord),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.logger.Info("server closed")
	return nil
}

func (a *app) routes(coord *application.Coordinator) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	mux.HandleFunc("GET /rounds/{round}/ranking", a.handleRanking)
	mux.HandleFunc("GET /rounds/{round}/report", a.handleReport)
	mux.HandleFunc("GET /leaderboard", a.handleLeaderboard)
	mux.HandleFunc("POST /scores", func(w http.ResponseWriter, r *http.Request) {
		a.handleScore(w, r, coord)
	})
	return mux
}

func (a *app) handleRanking(w http.ResponseWriter, r *http.Request) {
	roundID := r.PathValue("round")
	ranked, err := a.engine.ComputeRanking(r.Context(), roundID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	complete, err := a.engine.IsRoundComplete(r.Context(), roundID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	res := roundResult{RoundID: roundID, Ranking: ranked, Complete: complete}
	if complete {
		q, err := a.engine.ResolveQualification(r.Context(), roundID, true)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		res.Qualification = &q
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *app) handleReport(w http.ResponseWriter, r *http.Request) {
	report, err := a.engine.CompletenessReport(r.Context(), r.PathValue("round"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *app) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	standings, err := a.engine.Leaderboard(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}

func (a *app) handleScore(w http.ResponseWriter, r *http.Request, coord *application.Coordinator) {
	var rec domain.ScoreRecord
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	ok, err := a.jury.VerifyCredential(r.Context(), rec.JurorID, r.Header.Get(credentialHeader))
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		a.writeError(w, r, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid juror credential"})
		return
	}

	if err := coord.SubmitLocal(r.Context(), rec); err != nil {
		a.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (a *app) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorizedJuror):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDuplicateScoreRecord):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidScoreValue),
		errors.Is(err, domain.ErrIncompleteRound),
		errors.Is(err, domain.ErrInvalidPartition),
		errors.Is(err, domain.ErrInvalidQuota):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
