package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahrav/go-joute/infrastructure/rules"
	"github.com/ahrav/go-joute/infrastructure/store"
	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

const validContestYAML = `
version: "1.0.0"
metadata:
  name: "Printemps de l'éloquence"
engine:
  debounce_ms: 500
  tie_break: id
rounds:
  - id: final
    name: Finale
    sequence: 3
    kind: duel
    quota: ALL
  - id: heat
    name: Poules
    sequence: 1
    kind: notation
    quota: "2"
    locked: true
  - id: runoff
    name: Repêchage
    sequence: 2
    kind: repechage
    quota: 1
candidates:
  - {id: c1, name: Bob, round: heat}
  - {id: c2, name: Alice, round: heat}
  - {id: c3, name: Chloe, round: heat}
jurors:
  - {id: j1, name: Jeanne, rounds: [heat, final], credential: "pass-1"}
  - {id: j2, name: Jules, rounds: [heat, final], chair: true}
duels:
  - {id: d1, round: final, a: c1, b: c2}
bonus:
  allow_list:
    c2: d1
`

func TestConfigLoader_LoadFromReader(t *testing.T) {
	ctx := context.Background()
	loader, err := NewConfigLoader()
	require.NoError(t, err)

	contest, err := loader.LoadFromReader(ctx, strings.NewReader(validContestYAML))
	require.NoError(t, err)

	assert.Equal(t, "Printemps de l'éloquence", contest.Name)
	require.Len(t, contest.Rounds, 3)
	assert.Equal(t, []string{"heat", "runoff", "final"}, []string{contest.Rounds[0].ID, contest.Rounds[1].ID, contest.Rounds[2].ID})
	assert.Equal(t, domain.QuotaOf(2), contest.Rounds[0].Quota)
	assert.True(t, contest.Rounds[0].Locked)
	assert.Equal(t, domain.RoundRepechage, contest.Rounds[1].Kind)
	assert.True(t, contest.Rounds[2].Quota.IsAll())
	assert.Len(t, contest.Candidates, 3)
	assert.Equal(t, []domain.DuelPairing{{ID: "d1", RoundID: "final", CandidateA: "c1", CandidateB: "c2"}}, contest.Duels)
	assert.Equal(t, rules.BonusAllowList{"c2": "d1"}, contest.Bonus)
	assert.Equal(t, domain.TieBreakID, contest.Ranking.TieBreak)
	assert.Equal(t, 500*time.Millisecond, contest.Debounce)
}

func TestConfigLoader_Defaults(t *testing.T) {
	loader, err := NewConfigLoader()
	require.NoError(t, err)

	contest, err := loader.LoadFromReader(context.Background(), strings.NewReader(`
version: "1.0.0"
metadata: {name: minimal}
rounds:
  - {id: heat, name: Heat, sequence: 1, kind: notation, quota: all}
`))

	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, contest.Debounce)
	assert.Equal(t, domain.TieBreakName, contest.Ranking.TieBreak)
	assert.Empty(t, contest.Bonus)
	assert.True(t, contest.Rounds[0].Quota.IsAll())
}

func TestConfigLoader_Validation(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantQuota bool
		errMsg    string
		wantKey   string
	}{
		{
			name: "unknown field",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1, weight: 3}]
`,
			errMsg: "field weight not found",
		},
		{
			name: "bad version",
			yaml: `
version: "v1"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1}]
`,
			errMsg: "semver",
		},
		{
			name: "no rounds",
			yaml: `
version: "1.0.0"
metadata: {name: x}
`,
			errMsg:  "Rounds",
			wantKey: "ContestConfig.Rounds",
		},
		{
			name: "zero quota",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 0}]
`,
			wantQuota: true,
			errMsg:    "quota",
			wantKey:   "ContestConfig.Rounds[0].Quota",
		},
		{
			name: "word quota",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: half}]
`,
			wantQuota: true,
			errMsg:    "quota",
		},
		{
			name: "unknown kind",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: knockout, quota: 1}]
`,
			errMsg: "roundkind",
		},
		{
			name: "duplicate sequence",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds:
  - {id: a, name: A, sequence: 1, kind: notation, quota: 1}
  - {id: b, name: B, sequence: 1, kind: notation, quota: 1}
`,
			errMsg: "share sequence 1",
		},
		{
			name: "two chairs",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1}]
jurors:
  - {id: j1, name: A, rounds: [r], chair: true}
  - {id: j2, name: B, rounds: [r], chair: true}
`,
			errMsg: "at most one chair",
		},
		{
			name: "juror on unknown round",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1}]
jurors: [{id: j1, name: A, rounds: [q]}]
`,
			errMsg: "juror j1 references non-existent round: q",
		},
		{
			name: "candidate on unknown round",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1}]
candidates: [{id: c1, name: A, round: q}]
`,
			errMsg: "candidate c1 references non-existent round: q",
		},
		{
			name: "duel on notation round",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1}]
candidates: [{id: c1, name: A, round: r}, {id: c2, name: B, round: r}]
duels: [{id: d1, round: r, a: c1, b: c2}]
`,
			errMsg: "duel d1 is on notation round r",
		},
		{
			name: "duel against oneself",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: duel, quota: 1}]
candidates: [{id: c1, name: A, round: r}]
duels: [{id: d1, round: r, a: c1, b: c1}]
`,
			errMsg: "nefield",
		},
		{
			name: "bonus for unknown candidate",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1}]
bonus: {allow_list: {ghost: d1}}
`,
			errMsg: "bonus allow-list references non-existent candidate: ghost",
		},
		{
			name: "short credential",
			yaml: `
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1}]
jurors: [{id: j1, name: A, rounds: [r], credential: abc}]
`,
			errMsg: "Credential",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, err := NewConfigLoader()
			require.NoError(t, err)

			_, err = loader.LoadFromReader(context.Background(), strings.NewReader(tt.yaml))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			if tt.wantQuota {
				assert.ErrorIs(t, err, domain.ErrInvalidQuota)
			}
			if tt.wantKey != "" {
				var cerr *ports.ConfigError
				require.ErrorAs(t, err, &cerr)
				assert.Equal(t, tt.wantKey, cerr.ConfigKey)
			}
		})
	}
}

func TestConfigLoader_SemanticErrorsAreCollected(t *testing.T) {
	loader, err := NewConfigLoader()
	require.NoError(t, err)

	_, err = loader.LoadFromReader(context.Background(), strings.NewReader(`
version: "1.0.0"
metadata: {name: x}
rounds: [{id: r, name: R, sequence: 1, kind: notation, quota: 1}]
candidates: [{id: c1, name: A, round: q}, {id: c1, name: B, round: r}]
`))

	require.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 2)
}

func TestConfigLoader_LoadFromFile(t *testing.T) {
	ctx := context.Background()
	loader, err := NewConfigLoader()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "contest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validContestYAML), 0o600))

	contest, err := loader.LoadFromFile(ctx, path)
	require.NoError(t, err)
	assert.Len(t, contest.Rounds, 3)

	_, err = loader.LoadFromFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestConfigLoader_Cache(t *testing.T) {
	ctx := context.Background()
	loader, err := NewConfigLoader()
	require.NoError(t, err)

	first, err := loader.LoadFromReader(ctx, strings.NewReader(validContestYAML))
	require.NoError(t, err)

	// Reformatted but equivalent YAML hits the same entry.
	reformatted := strings.ReplaceAll(validContestYAML, "\n  - {id: c1, name: Bob, round: heat}", "\n  - id: c1\n    name: Bob\n    round: heat")
	second, err := loader.LoadFromReader(ctx, strings.NewReader(reformatted))
	require.NoError(t, err)
	assert.Same(t, first, second)

	loader.ClearCache()
	third, err := loader.LoadFromReader(ctx, strings.NewReader(validContestYAML))
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.Equal(t, first, third)
}

func TestConfigLoader_ConcurrentLoadsShareResult(t *testing.T) {
	ctx := context.Background()
	loader, err := NewConfigLoader()
	require.NoError(t, err)

	const workers = 16
	results := make([]*Contest, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := loader.LoadFromReader(ctx, strings.NewReader(validContestYAML))
			assert.NoError(t, err)
			results[i] = c
		}()
	}
	wg.Wait()

	for _, c := range results[1:] {
		assert.Same(t, results[0], c)
	}
}

func TestConfigLoader_CancelledContext(t *testing.T) {
	loader, err := NewConfigLoader()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = loader.LoadFromReader(ctx, strings.NewReader(validContestYAML))

	require.ErrorIs(t, err, context.Canceled)
}

func TestSeedContest(t *testing.T) {
	ctx := context.Background()
	loader, err := NewConfigLoader()
	require.NoError(t, err)
	contest, err := loader.LoadFromReader(ctx, strings.NewReader(validContestYAML))
	require.NoError(t, err)

	s := store.NewMemoryStore()
	jury := NewJuryService(s, JuryOptions{Clock: stepClock(), BcryptCost: bcrypt.MinCost})

	require.NoError(t, SeedContest(ctx, s, jury, contest, t0))

	rounds, err := s.ListRounds(ctx)
	require.NoError(t, err)
	assert.Len(t, rounds, 3)

	candidates, err := s.ListCandidates(ctx, "heat")
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, []string{"c1", "c2", "c3"}, []string{candidates[0].ID, candidates[1].ID, candidates[2].ID})
	assert.Equal(t, domain.StatusActive, candidates[0].Status)

	chair, err := jury.Chair(ctx)
	require.NoError(t, err)
	assert.Equal(t, "j2", chair.ID)
	ok, err := jury.VerifyCredential(ctx, "j1", "pass-1")
	require.NoError(t, err)
	assert.True(t, ok)

	duels, err := s.ListDuels(ctx, "final")
	require.NoError(t, err)
	assert.Len(t, duels, 1)

	t.Run("reseeding preserves progress", func(t *testing.T) {
		moved := candidates[0]
		moved.RoundID = "runoff"
		moved.Status = domain.StatusQualified
		require.NoError(t, s.UpdateCandidates(ctx, moved))
		require.NoError(t, jury.ChangeCredential(ctx, "j1", "pass-1", "pass-2"))

		require.NoError(t, SeedContest(ctx, s, jury, contest, t0.Add(time.Hour)))

		onRunoff, err := s.ListCandidates(ctx, "runoff")
		require.NoError(t, err)
		require.Len(t, onRunoff, 1)
		assert.Equal(t, domain.StatusQualified, onRunoff[0].Status)

		ok, err := jury.VerifyCredential(ctx, "j1", "pass-2")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
