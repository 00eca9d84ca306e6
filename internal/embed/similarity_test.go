package embed

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vectors map[string][]float32
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	vec, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

type mapCache struct {
	data map[string][]float32
}

func (c *mapCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	vec, ok := c.data[key]
	return vec, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []float32) error {
	if c.data == nil {
		c.data = make(map[string][]float32)
	}
	c.data[key] = value
	return nil
}

func (c *mapCache) Close() error { return nil }

func TestSimilarityIdenticalVectors(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {1, 0, 0},
	}}
	scorer, err := NewScorer(embedder, nil)
	require.NoError(t, err)

	sim, err := scorer.Similarity(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestSimilarityOrthogonalVectors(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {0, 1},
	}}
	scorer, err := NewScorer(embedder, nil)
	require.NoError(t, err)

	sim, err := scorer.Similarity(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.InDelta(t, 0, sim, 1e-9)
}

func TestSimilarityClampsNegative(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {-1, 0},
	}}
	scorer, err := NewScorer(embedder, nil)
	require.NoError(t, err)

	sim, err := scorer.Similarity(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
}

func TestSimilarityUsesCache(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0},
	}}
	scorer, err := NewScorer(embedder, &mapCache{})
	require.NoError(t, err)

	_, err = scorer.Similarity(context.Background(), "a", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.calls, "second lookup of the same text hits the cache")
}

func TestSimilarityPropagatesEmbedError(t *testing.T) {
	scorer, err := NewScorer(&stubEmbedder{}, nil)
	require.NoError(t, err)

	_, err = scorer.Similarity(context.Background(), "missing", "missing")
	assert.Error(t, err)
}

func TestNewScorerRequiresEmbedder(t *testing.T) {
	_, err := NewScorer(nil, nil)
	assert.Error(t, err)
}

func TestCosineRejectsMismatchedLengths(t *testing.T) {
	_, err := cosine([]float32{1, 2}, []float32{1})
	assert.Error(t, err)

	_, err = cosine([]float32{0, 0}, []float32{0, 0})
	assert.Error(t, err)
}
