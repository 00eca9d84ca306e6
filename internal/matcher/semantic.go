package matcher

import (
	"context"
	"fmt"

	"github.com/cnukaus/Polymarket-arbitrage/internal/config"
	"github.com/cnukaus/Polymarket-arbitrage/internal/events"
)

// SimilarityScorer is the injected semantic-similarity capability. The
// embedding model behind it is the caller's concern: construct once, reuse.
type SimilarityScorer interface {
	Similarity(ctx context.Context, textA, textB string) (float64, error)
}

// semanticStrategy scores pairs through the injected scorer. With no scorer
// configured it abstains, so the rest of the weight table still applies.
type semanticStrategy struct {
	scorer SimilarityScorer
}

func (semanticStrategy) Name() string { return config.StrategySemanticEmbedding }

func (s semanticStrategy) Score(ctx context.Context, a, b *events.Event) (float64, bool, error) {
	if s.scorer == nil {
		return 0, false, nil
	}
	textA := embeddingText(a)
	textB := embeddingText(b)
	if textA == "" || textB == "" {
		return 0, false, nil
	}
	sim, err := s.scorer.Similarity(ctx, textA, textB)
	if err != nil {
		return 0, false, fmt.Errorf("semantic similarity: %w", err)
	}
	return clamp01(sim), true, nil
}

// embeddingText builds the text handed to the similarity scorer: title plus
// resolution criteria, so textual look-alikes with different settlement
// terms score lower.
func embeddingText(e *events.Event) string {
	if e.Title == "" {
		return e.ResolutionCriteria
	}
	if e.ResolutionCriteria == "" {
		return e.Title
	}
	return e.Title + "\n" + e.ResolutionCriteria
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
