package matcher

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
)

// Matcher evaluates cross-venue event pairs with a weighted set of scoring
// strategies. It is stateless between calls; pair evaluations are pure and
// fan out across workers.
type Matcher struct {
	cfg      config.MatcherConfig
	registry *Registry
}

// New builds a matcher from config. The similarity scorer may be nil, in
// which case the semantic strategy abstains on every pair.
func New(cfg config.MatcherConfig, scorer SimilarityScorer) (*Matcher, error) {
	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 1 {
		cfg.ConfidenceThreshold = 0.75
	}
	if cfg.ReviewThreshold <= 0 || cfg.ReviewThreshold > 1 {
		cfg.ReviewThreshold = 0.90
	}
	if cfg.MaxDeadlineSkew <= 0 {
		cfg.MaxDeadlineSkew = 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	weights := cfg.StrategyWeights
	if len(weights) == 0 {
		weights = config.DefaultStrategyWeights()
	}

	registry := NewRegistry()
	available := []Strategy{
		exactTitleStrategy{},
		fuzzyTitleStrategy{},
		entityOverlapStrategy{},
		semanticStrategy{scorer: scorer},
		resolutionCriteriaStrategy{},
		temporalAlignmentStrategy{},
	}
	for _, s := range available {
		weight, selected := weights[s.Name()]
		if !selected {
			continue
		}
		if err := registry.Register(s, weight); err != nil {
			return nil, err
		}
	}

	return &Matcher{cfg: cfg, registry: registry}, nil
}

// Threshold returns the acceptance threshold in effect.
func (m *Matcher) Threshold() float64 {
	return m.cfg.ConfidenceThreshold
}

type pair struct {
	a, b *events.Event
}

// FindMatches evaluates every cross-venue pair and returns the matches at
// or above the confidence threshold, highest confidence first. Same-venue
// pairs are skipped; malformed events are logged and dropped.
func (m *Matcher) FindMatches(ctx context.Context, eventsA, eventsB []events.Event) []MatchResult {
	validA := validEvents(eventsA)
	validB := validEvents(eventsB)

	var pairs []pair
	for i := range validA {
		for j := range validB {
			if validA[i].Venue == validB[j].Venue {
				continue
			}
			pairs = append(pairs, pair{a: &validA[i], b: &validB[j]})
		}
	}
	if len(pairs) == 0 {
		return nil
	}

	jobs := make(chan pair)
	var mu sync.Mutex
	var matches []MatchResult

	var wg sync.WaitGroup
	for w := 0; w < m.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				result := m.evaluatePair(ctx, p.a, p.b)
				if result == nil || result.Confidence < m.cfg.ConfidenceThreshold {
					continue
				}
				mu.Lock()
				matches = append(matches, *result)
				mu.Unlock()
			}
		}()
	}

	for _, p := range pairs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return sortMatches(matches)
		case jobs <- p:
		}
	}
	close(jobs)
	wg.Wait()

	return sortMatches(matches)
}

// evaluatePair runs every registered strategy and combines the non-zero
// scores under the configured weights. A failing strategy is logged and
// skipped; it never aborts the pair.
func (m *Matcher) evaluatePair(ctx context.Context, a, b *events.Event) *MatchResult {
	var confidence float64
	var contributing []string

	for _, entry := range m.registry.entries {
		score, ok, err := entry.strategy.Score(ctx, a, b)
		if err != nil {
			logging.Errorf("[matcher] strategy %s failed for %s/%s: %v",
				entry.strategy.Name(), a.ID, b.ID, err)
			continue
		}
		if !ok || score <= 0 {
			continue
		}
		confidence += score * entry.weight
		contributing = append(contributing, entry.strategy.Name())
	}

	if len(contributing) == 0 {
		return nil
	}

	risks := detectRiskFactors(a, b)

	skew := a.Deadline.Sub(b.Deadline)
	if skew < 0 {
		skew = -skew
	}
	reviewRequired := confidence < m.cfg.ReviewThreshold ||
		len(risks) > 0 ||
		skew > m.cfg.MaxDeadlineSkew

	return &MatchResult{
		PairID:              PairID(a, b),
		EventA:              *a,
		EventB:              *b,
		Confidence:          confidence,
		Strategies:          contributing,
		RiskFactors:         risks,
		HumanReviewRequired: reviewRequired,
		MatchedAt:           time.Now().UTC(),
	}
}

func validEvents(in []events.Event) []events.Event {
	out := make([]events.Event, 0, len(in))
	for _, ev := range in {
		if err := ev.Validate(); err != nil {
			logging.Errorf("[matcher] dropping event: %v", err)
			continue
		}
		out = append(out, ev)
	}
	return out
}

func sortMatches(matches []MatchResult) []MatchResult {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].PairID < matches[j].PairID
	})
	return matches
}
