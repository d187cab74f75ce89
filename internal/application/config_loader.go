package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-joute/infrastructure/rules"
	"github.com/ahrav/go-joute/internal/domain"
	"github.com/ahrav/go-joute/internal/ports"
)

// ConfigLoader provides YAML configuration parsing, validation, and caching
// for contest setups, turning a declarative document into domain values the
// engine can seed a store with.
// Use ConfigLoader to load contests from files or readers while benefiting
// from SHA256-based caching and comprehensive validation.
type ConfigLoader struct {
	// validator performs struct field validation with the contest's custom
	// quota and roundkind rules.
	validator *validator.Validate
	// cache stores compiled contests indexed by SHA256 hash of the
	// normalized configuration.
	// WARNING: Cached contests MUST NOT be mutated.
	cache   map[string]*Contest
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when multiple goroutines request
	// the same contest simultaneously.
	sf singleflight.Group
}

// NewConfigLoader creates a loader with validation capabilities and an
// empty cache.
// NewConfigLoader returns an error if validator registration fails.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := RegisterContestValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ConfigLoader{
		validator: v,
		cache:     make(map[string]*Contest),
	}, nil
}

// LoadFromFile loads and compiles a contest from a YAML file.
// WARNING: The returned contest is a pointer to a cached instance.
// LoadFromFile returns an error wrapping domain.ErrInvalidConfiguration
// when the document fails validation, and domain.ErrInvalidQuota as well
// when a round's quota is the culprit.
func (cl *ConfigLoader) LoadFromFile(ctx context.Context, path string) (*Contest, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return cl.load(ctx, data)
}

// LoadFromReader loads and compiles a contest from an io.Reader, with the
// same validation and caching as LoadFromFile.
func (cl *ConfigLoader) LoadFromReader(ctx context.Context, r io.Reader) (*Contest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	return cl.load(ctx, data)
}

func (cl *ConfigLoader) load(ctx context.Context, data []byte) (*Contest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	config, err := cl.parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Hash the normalized config, not raw bytes.
	hash, err := cl.calculateConfigHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, _ := cl.sf.Do(hash, func() (any, error) {
		if contest, ok := cl.getCached(hash); ok {
			return contest, nil
		}

		if err := cl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}

		contest, err := compileContest(config)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfiguration, err)
		}

		cl.store(hash, contest)
		return contest, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*Contest), nil
}

// parseYAML uses strict decoding so configuration typos are not silently
// ignored.
func (cl *ConfigLoader) parseYAML(data []byte) (*ContestConfig, error) {
	var config ContestConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

// validateConfig runs struct validation followed by the cross-reference
// checks struct tags cannot express.
func (cl *ConfigLoader) validateConfig(config *ContestConfig) error {
	if err := cl.validator.Struct(config); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return fmt.Errorf("struct validation failed: %w", err)
		}
		// The first failing field names the error; the message keeps them all.
		for _, fe := range fieldErrs {
			if fe.Tag() == "quota" {
				return fmt.Errorf("struct validation failed: %w",
					ports.NewConfigError(fe.Namespace(), fmt.Errorf("%w: %w", domain.ErrInvalidQuota, err)))
			}
		}
		return fmt.Errorf("struct validation failed: %w", ports.NewConfigError(fieldErrs[0].Namespace(), err))
	}

	if err := validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}
	return nil
}

// validateSemantics checks uniqueness and reference integrity across
// rounds, candidates, jurors, duels and the bonus allow-list. Every
// violation is collected so operators can fix a document in one pass.
func validateSemantics(config *ContestConfig) error {
	verr := domain.NewValidationError("contest")

	rounds := make(map[string]domain.RoundKind, len(config.Rounds))
	sequences := make(map[int]string, len(config.Rounds))
	for _, r := range config.Rounds {
		if _, dup := rounds[r.ID]; dup {
			verr.AddErrorf("duplicate round ID %q", r.ID)
		}
		rounds[r.ID] = domain.RoundKind(r.Kind)
		if other, dup := sequences[r.Sequence]; dup {
			verr.AddErrorf("rounds %s and %s share sequence %d", other, r.ID, r.Sequence)
		}
		sequences[r.Sequence] = r.ID
	}

	candidates := make(map[string]struct{}, len(config.Candidates))
	for _, c := range config.Candidates {
		if _, dup := candidates[c.ID]; dup {
			verr.AddErrorf("duplicate candidate ID %q", c.ID)
		}
		candidates[c.ID] = struct{}{}
		if _, ok := rounds[c.Round]; !ok {
			verr.AddErrorf("candidate %s references non-existent round: %s", c.ID, c.Round)
		}
	}

	jurors := make(map[string]struct{}, len(config.Jurors))
	var chairs []string
	for _, j := range config.Jurors {
		if _, dup := jurors[j.ID]; dup {
			verr.AddErrorf("duplicate juror ID %q", j.ID)
		}
		jurors[j.ID] = struct{}{}
		if j.Chair {
			chairs = append(chairs, j.ID)
		}
		for _, rid := range j.Rounds {
			if _, ok := rounds[rid]; !ok {
				verr.AddErrorf("juror %s references non-existent round: %s", j.ID, rid)
			}
		}
	}
	if len(chairs) > 1 {
		verr.AddErrorf("at most one chair juror allowed, got %v", chairs)
	}

	duels := make(map[string]struct{}, len(config.Duels))
	for _, d := range config.Duels {
		if _, dup := duels[d.ID]; dup {
			verr.AddErrorf("duplicate duel ID %q", d.ID)
		}
		duels[d.ID] = struct{}{}
		kind, ok := rounds[d.Round]
		switch {
		case !ok:
			verr.AddErrorf("duel %s references non-existent round: %s", d.ID, d.Round)
		case kind != domain.RoundDuel:
			verr.AddErrorf("duel %s is on %s round %s", d.ID, kind, d.Round)
		}
		for _, cid := range []string{d.A, d.B} {
			if _, ok := candidates[cid]; !ok {
				verr.AddErrorf("duel %s references non-existent candidate: %s", d.ID, cid)
			}
		}
	}

	for cid := range config.Bonus.AllowList {
		if _, ok := candidates[cid]; !ok {
			verr.AddErrorf("bonus allow-list references non-existent candidate: %s", cid)
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// compileContest converts a validated configuration into domain values.
func compileContest(config *ContestConfig) (*Contest, error) {
	contest := &Contest{
		Name:       config.Metadata.Name,
		Rounds:     make([]domain.Round, 0, len(config.Rounds)),
		Candidates: config.Candidates,
		Jurors:     config.Jurors,
		Duels:      make([]domain.DuelPairing, 0, len(config.Duels)),
		Bonus:      rules.BonusAllowList(config.Bonus.AllowList),
		Ranking:    rules.DefaultRankingConfig(),
		Debounce:   DefaultDebounce,
	}

	for _, rc := range config.Rounds {
		quota, err := domain.ParseQuota(rc.Quota)
		if err != nil {
			return nil, fmt.Errorf("round %s: %w", rc.ID, err)
		}
		contest.Rounds = append(contest.Rounds, domain.Round{
			ID:       rc.ID,
			Name:     rc.Name,
			Sequence: rc.Sequence,
			Kind:     domain.RoundKind(rc.Kind),
			Quota:    quota,
			Locked:   rc.Locked,
		})
	}
	domain.SortRounds(contest.Rounds)

	for _, d := range config.Duels {
		contest.Duels = append(contest.Duels, domain.DuelPairing{
			ID:         d.ID,
			RoundID:    d.Round,
			CandidateA: d.A,
			CandidateB: d.B,
		})
	}

	if config.Engine.TieBreak != "" {
		contest.Ranking.TieBreak = domain.TieBreakPolicy(config.Engine.TieBreak)
	}
	if config.Engine.DebounceMS > 0 {
		contest.Debounce = time.Duration(config.Engine.DebounceMS) * time.Millisecond
	}

	return contest, nil
}

// calculateConfigHash re-encodes the config with consistent formatting so
// semantically identical documents share a cache entry.
func (cl *ConfigLoader) calculateConfigHash(config *ContestConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (cl *ConfigLoader) getCached(hash string) (*Contest, bool) {
	cl.cacheMu.RLock()
	defer cl.cacheMu.RUnlock()

	contest, ok := cl.cache[hash]
	return contest, ok
}

func (cl *ConfigLoader) store(hash string, contest *Contest) {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache[hash] = contest
}

// ClearCache removes all cached contests, forcing subsequent loads to
// recompile from source.
func (cl *ConfigLoader) ClearCache() {
	cl.cacheMu.Lock()
	defer cl.cacheMu.Unlock()

	cl.cache = make(map[string]*Contest)
}
