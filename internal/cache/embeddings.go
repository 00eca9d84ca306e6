package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// EmbeddingCache stores embedding vectors keyed by text hash.
type EmbeddingCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, value []float32) error
	Close() error
}

type redisEmbeddingCache struct {
	client *redis.Client
	opts   Options
}

// NewRedisEmbeddingCache builds an embedding cache on redis.
func NewRedisEmbeddingCache(opts Options) (EmbeddingCache, error) {
	client, err := newRedisClient(opts)
	if err != nil {
		return nil, err
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = "emb"
	}
	return &redisEmbeddingCache{client: client, opts: opts}, nil
}

func (c *redisEmbeddingCache) key(k string) string {
	return fmt.Sprintf("%s:%s", c.opts.Prefix, k)
}

func (c *redisEmbeddingCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var out []float32
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func (c *redisEmbeddingCache) Set(ctx context.Context, key string, value []float32) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(key), data, c.opts.TTL).Err()
}

func (c *redisEmbeddingCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
