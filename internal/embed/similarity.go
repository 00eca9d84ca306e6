package embed

import (
	"context"
	"fmt"
	"math"

	"github.com/cnukaus/Polymarket-arbitrage/internal/cache"
	"github.com/cnukaus/Polymarket-arbitrage/internal/hashutil"
	"github.com/cnukaus/Polymarket-arbitrage/internal/logging"
)

// Embedder abstracts the embedding backend so the scorer can be tested
// without network access.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Scorer turns an embedding backend into a pairwise similarity score for
// the matcher. Vectors are cached by text hash when a cache is provided;
// cache errors degrade to a recompute, never a failure.
type Scorer struct {
	embedder Embedder
	cache    cache.EmbeddingCache
}

// NewScorer builds a similarity scorer. The cache may be nil.
func NewScorer(embedder Embedder, embCache cache.EmbeddingCache) (*Scorer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("embed: embedder is required")
	}
	return &Scorer{embedder: embedder, cache: embCache}, nil
}

// Similarity returns the cosine similarity of the two texts' embeddings,
// clamped to [0,1].
func (s *Scorer) Similarity(ctx context.Context, textA, textB string) (float64, error) {
	va, err := s.vector(ctx, textA)
	if err != nil {
		return 0, err
	}
	vb, err := s.vector(ctx, textB)
	if err != nil {
		return 0, err
	}
	sim, err := cosine(va, vb)
	if err != nil {
		return 0, err
	}
	if sim < 0 {
		return 0, nil
	}
	if sim > 1 {
		return 1, nil
	}
	return sim, nil
}

func (s *Scorer) vector(ctx context.Context, text string) ([]float32, error) {
	var key string
	if s.cache != nil {
		key = hashutil.HashStrings(text)
		if vec, ok, err := s.cache.Get(ctx, key); err != nil {
			logging.Errorf("[embed-cache] get error key=%s: %v", key, err)
		} else if ok {
			return vec, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, vec); err != nil {
			logging.Errorf("[embed-cache] set error key=%s: %v", key, err)
		}
	}
	return vec, nil
}

func cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("cosine: vector lengths %d and %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("cosine: zero-magnitude vector")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
