package application

import (
	"time"

	"github.com/ahrav/go-joute/infrastructure/rules"
	"github.com/ahrav/go-joute/internal/domain"
)

// DefaultDebounce is the settling window after which the coordinator
// re-checks completeness following a burst of score writes.
const DefaultDebounce = 300 * time.Millisecond

// ContestConfig defines the complete declarative setup of a contest and
// serves as the primary configuration entry point for the system.
// Use ContestConfig to describe rounds, candidates, jurors and engine
// behaviour in one YAML document that can be validated before any ranking
// attempt.
type ContestConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the contest.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// Engine tunes ranking tie-breaks and the recompute debounce window.
	Engine EngineConfig `yaml:"engine"`
	// Rounds defines the contest stages; sequences must be unique.
	Rounds []RoundConfig `yaml:"rounds" validate:"required,min=1,dive"`
	// Candidates lists contestants in creation order.
	Candidates []CandidateConfig `yaml:"candidates" validate:"dive"`
	// Jurors lists jurors in creation order. At most one may be chair.
	Jurors []JurorConfig `yaml:"jurors" validate:"dive"`
	// Duels lists head-to-head pairings on duel rounds.
	Duels []DuelConfig `yaml:"duels" validate:"dive"`
	// Bonus configures the winner bonus allow-list; empty disables it.
	Bonus BonusConfig `yaml:"bonus"`
}

// Metadata provides descriptive information about a contest.
type Metadata struct {
	// Name is the human-readable contest name.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description provides free-form context for operators.
	Description string `yaml:"description" validate:"max=1000"`
}

// EngineConfig controls engine behaviour that is not part of the rules
// themselves.
type EngineConfig struct {
	// DebounceMS is the settling window in milliseconds; 0 selects the
	// 300ms default.
	DebounceMS int `yaml:"debounce_ms" validate:"min=0,max=60000"`
	// TieBreak orders equal displayed scores: "name" (default) or "id".
	TieBreak string `yaml:"tie_break" validate:"omitempty,oneof=name id"`
}

// RoundConfig defines one contest stage.
type RoundConfig struct {
	// ID uniquely identifies the round.
	ID string `yaml:"id" validate:"required,min=1,max=100,excludesall= "`
	// Name is the display name.
	Name string `yaml:"name" validate:"required,max=255"`
	// Sequence orders rounds; it must be unique across the contest.
	Sequence int `yaml:"sequence" validate:"min=0"`
	// Kind is one of notation, duel or repechage.
	Kind string `yaml:"kind" validate:"required,roundkind"`
	// Quota is a positive integer or ALL.
	Quota string `yaml:"quota" validate:"required,quota"`
	// Locked forbids overwriting submitted scores on this round.
	Locked bool `yaml:"locked"`
}

// CandidateConfig defines a contestant and the round they start in.
type CandidateConfig struct {
	ID    string `yaml:"id" validate:"required,min=1,max=100,excludesall= "`
	Name  string `yaml:"name" validate:"required,max=255"`
	Round string `yaml:"round" validate:"required"`
}

// JurorConfig defines a juror. Credential is hashed on seeding and never
// stored in clear.
type JurorConfig struct {
	ID         string   `yaml:"id" validate:"required,min=1,max=100,excludesall= "`
	Name       string   `yaml:"name" validate:"required,max=255"`
	Credential string   `yaml:"credential" validate:"omitempty,min=4,max=72"`
	Rounds     []string `yaml:"rounds" validate:"dive,required"`
	Chair      bool     `yaml:"chair"`
}

// DuelConfig pairs two candidates on a duel round.
type DuelConfig struct {
	ID    string `yaml:"id" validate:"required,min=1,max=100"`
	Round string `yaml:"round" validate:"required"`
	A     string `yaml:"a" validate:"required"`
	B     string `yaml:"b" validate:"required,nefield=A"`
}

// BonusConfig lists candidates eligible for the winner bonus, keyed by
// candidate ID, with the source (usually a duel ID) that earned it.
type BonusConfig struct {
	AllowList map[string]string `yaml:"allow_list"`
}

// Contest is a validated configuration compiled into domain values.
// Cached instances are shared; callers MUST NOT mutate them.
type Contest struct {
	Name       string
	Rounds     []domain.Round
	Candidates []CandidateConfig
	Jurors     []JurorConfig
	Duels      []domain.DuelPairing
	Bonus      rules.BonusAllowList
	Ranking    rules.RankingConfig
	Debounce   time.Duration
}

// RoundIDs returns the round IDs in configuration order.
func (c *Contest) RoundIDs() []string {
	ids := make([]string, len(c.Rounds))
	for i, r := range c.Rounds {
		ids[i] = r.ID
	}
	return ids
}
