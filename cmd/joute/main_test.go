package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-joute/internal/application"
	"github.com/ahrav/go-joute/internal/domain"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testConfig(t *testing.T, command string, args ...string) cliConfig {
	t.Helper()
	return cliConfig{
		ConfigPath:  filepath.Join("testdata", "contest.yaml"),
		DatabaseURL: filepath.Join(t.TempDir(), "joute.db"),
		Output:      "json",
		Command:     command,
		Args:        args,
	}
}

// runCommand runs cfg with command and args over the same database.
func runCommand(t *testing.T, cfg cliConfig, command string, args ...string) string {
	t.Helper()
	cfg.Command, cfg.Args = command, args
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, discardLogger(), &out))
	return out.String()
}

func TestRun_ImportThenCommit(t *testing.T) {
	cfg := testConfig(t, "")

	// Given the heat scored through import
	out := runCommand(t, cfg, "import", filepath.Join("testdata", "scores.yaml"))

	// Then the settled heat is printed once with its qualification
	var settled roundResult
	require.NoError(t, json.NewDecoder(strings.NewReader(out)).Decode(&settled))
	assert.Equal(t, "heat", settled.RoundID)
	assert.True(t, settled.Complete)
	require.Len(t, settled.Ranking, 3)
	assert.Equal(t, "Alice", settled.Ranking[0].Name)
	assert.Equal(t, 110.0, settled.Ranking[0].Triple.Displayed)
	require.NotNil(t, settled.Qualification)
	assert.Equal(t, []string{"c2", "c1"}, settled.Qualification.Qualified)
	assert.Equal(t, []string{"c3"}, settled.Qualification.Eliminated)

	// When the heat is committed on a later run
	out = runCommand(t, cfg, "commit", "heat")
	var q domain.Qualification
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, []string{"c2", "c1"}, q.Qualified)

	// Then the qualified candidates sit on the final
	out = runCommand(t, cfg, "report", "final")
	assert.Contains(t, out, `"round_id": "final"`)

	cfg.Output = "text"
	out = runCommand(t, cfg, "leaderboard")
	assert.Contains(t, out, "round heat")
	assert.Contains(t, out, "round final")
	assert.Contains(t, out, "Alice")
}

func TestRun_RankIncompleteRound(t *testing.T) {
	cfg := testConfig(t, "")

	out := runCommand(t, cfg, "rank", "heat")

	var res roundResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Complete)
	assert.Len(t, res.Ranking, 3)
	require.NotNil(t, res.Qualification)

	cfg.Strict = true
	out = runCommand(t, cfg, "rank", "heat")
	res = roundResult{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Nil(t, res.Qualification)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*cliConfig)
		wantErr error
	}{
		{
			name:    "unknown round",
			mutate:  func(c *cliConfig) { c.Command, c.Args = "rank", []string{"semi"} },
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "strict commit of incomplete round",
			mutate:  func(c *cliConfig) { c.Command, c.Args, c.Strict = "commit", []string{"heat"}, true },
			wantErr: domain.ErrIncompleteRound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, "")
			tt.mutate(&cfg)

			err := run(context.Background(), cfg, discardLogger(), io.Discard)

			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("missing contest file", func(t *testing.T) {
		cfg := testConfig(t, "leaderboard")
		cfg.ConfigPath = filepath.Join(t.TempDir(), "absent.yaml")

		err := run(context.Background(), cfg, discardLogger(), io.Discard)

		require.Error(t, err)
	})
}

func newTestServer(t *testing.T) (*app, http.Handler) {
	t.Helper()
	ctx := context.Background()
	a, err := newApp(ctx, testConfig(t, "serve"), discardLogger(), io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	coord := application.NewCoordinator(a.engine, application.CoordinatorOptions{
		Debounce: a.contest.Debounce,
		Logger:   discardLogger(),
		Metrics:  a.metrics,
	})
	coord.Track(a.contest.RoundIDs()...)
	coord.Attach(a.store)
	t.Cleanup(coord.Close)
	return a, a.routes(coord)
}

func postScore(t *testing.T, h http.Handler, credential string, rec domain.ScoreRecord) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(rec)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/scores", bytes.NewReader(body))
	req.Header.Set(credentialHeader, credential)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServe_Scores(t *testing.T) {
	_, h := newTestServer(t)
	rec := domain.ScoreRecord{CandidateID: "c1", JurorID: "j1", RoundID: "heat", Fond: "15", Forme: "10"}

	tests := []struct {
		name       string
		credential string
		rec        domain.ScoreRecord
		wantStatus int
	}{
		{name: "accepted", credential: "secret-1", rec: rec, wantStatus: http.StatusAccepted},
		{name: "wrong credential", credential: "secret-2", rec: rec, wantStatus: http.StatusUnauthorized},
		{
			name:       "unknown juror",
			credential: "secret-1",
			rec:        domain.ScoreRecord{CandidateID: "c1", JurorID: "ghost", RoundID: "heat", Fond: "15", Forme: "10"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid value",
			credential: "secret-2",
			rec:        domain.ScoreRecord{CandidateID: "c1", JurorID: "j2", RoundID: "heat", Fond: "12", Forme: "10"},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postScore(t, h, tt.credential, tt.rec)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/scores", strings.NewReader("{"))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestServe_Reads(t *testing.T) {
	_, h := newTestServer(t)
	require.Equal(t, http.StatusAccepted, postScore(t, h, "secret-1", domain.ScoreRecord{
		CandidateID: "c2", JurorID: "j1", RoundID: "heat", Fond: "20", Forme: "20",
	}).Code)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "ranking", path: "/rounds/heat/ranking", wantStatus: http.StatusOK, wantBody: `"candidate_id":"c2"`},
		{name: "report", path: "/rounds/heat/report", wantStatus: http.StatusOK, wantBody: `"complete":false`},
		{name: "leaderboard", path: "/leaderboard", wantStatus: http.StatusOK, wantBody: `"entries"`},
		{name: "unknown round", path: "/rounds/semi/ranking", wantStatus: http.StatusNotFound, wantBody: "not found"},
		{name: "metrics", path: "/metrics", wantStatus: http.StatusOK, wantBody: "joute_engine_operation_duration_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
