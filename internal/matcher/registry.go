package matcher

import (
	"context"
	"fmt"

	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
)

// Strategy scores how likely two events describe the same outcome.
// Score returns a value in [0,1]; ok=false means the strategy abstains for
// this pair (missing inputs), which is different from scoring zero.
type Strategy interface {
	Name() string
	Score(ctx context.Context, a, b *events.Event) (score float64, ok bool, err error)
}

type weightedStrategy struct {
	strategy Strategy
	weight   float64
}

// Registry holds the active strategies and their weights. Strategies are
// evaluated in registration order so results are deterministic.
type Registry struct {
	entries []weightedStrategy
	byName  map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]struct{})}
}

// Register adds a strategy with the given weight. Zero-weight strategies
// are accepted but never influence the combined score.
func (r *Registry) Register(s Strategy, weight float64) error {
	if s == nil {
		return fmt.Errorf("matcher: nil strategy")
	}
	if weight < 0 {
		return fmt.Errorf("matcher: strategy %q has negative weight", s.Name())
	}
	if _, dup := r.byName[s.Name()]; dup {
		return fmt.Errorf("matcher: strategy %q registered twice", s.Name())
	}
	r.byName[s.Name()] = struct{}{}
	r.entries = append(r.entries, weightedStrategy{strategy: s, weight: weight})
	return nil
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	return len(r.entries)
}
