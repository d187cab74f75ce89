package application

import (
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/go-joute/infrastructure/rules"
	"github.com/ahrav/go-joute/internal/domain"
)

// AggregatorFactory builds the aggregator for one round kind.
type AggregatorFactory func() domain.Aggregator

// AggregatorRegistry maps round kinds to their aggregators.
// It supports dynamic registration so alternative scoring rules can be
// plugged in without touching the engine.
type AggregatorRegistry struct {
	// factories maps round kinds to their factory functions.
	factories map[domain.RoundKind]AggregatorFactory
	// mu protects concurrent access to the factories map.
	mu sync.RWMutex
}

// NewAggregatorRegistry creates a registry with the notation, duel and
// repêchage aggregators pre-registered.
func NewAggregatorRegistry() *AggregatorRegistry {
	r := &AggregatorRegistry{factories: make(map[domain.RoundKind]AggregatorFactory)}
	r.registerBuiltinFactories()
	return r
}

func (r *AggregatorRegistry) registerBuiltinFactories() {
	r.factories[domain.RoundNotation] = func() domain.Aggregator { return rules.NewNotationAggregator() }
	r.factories[domain.RoundDuel] = func() domain.Aggregator { return rules.NewDuelAggregator() }
	r.factories[domain.RoundRepechage] = func() domain.Aggregator { return rules.NewRepechageAggregator() }
}

// AggregatorFor returns a fresh aggregator for kind.
func (r *AggregatorRegistry) AggregatorFor(kind domain.RoundKind) (domain.Aggregator, error) {
	r.mu.RLock()
	factory, exists := r.factories[kind]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported round kind: %s", kind)
	}

	agg := factory()
	if agg == nil {
		return nil, fmt.Errorf("factory for round kind %s returned nil", kind)
	}
	return agg, nil
}

// Register replaces the factory for kind.
func (r *AggregatorRegistry) Register(kind domain.RoundKind, factory AggregatorFactory) error {
	if kind == "" {
		return fmt.Errorf("round kind cannot be empty")
	}

	if factory == nil {
		return fmt.Errorf("factory function cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[kind] = factory
	return nil
}

// SupportedKinds returns every registered round kind, sorted.
func (r *AggregatorRegistry) SupportedKinds() []domain.RoundKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.RoundKind, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}
