package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpportunityRecord captures the best alerted result for a pair so repeat
// cycles do not re-alert the same opportunity.
type OpportunityRecord struct {
	NetEdge   float64   `json:"net_edge"`
	Direction string    `json:"direction"`
	MaxSize   float64   `json:"max_size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OpportunityCache stores the best opportunity per pair ID.
type OpportunityCache interface {
	Get(ctx context.Context, pairID string) (*OpportunityRecord, bool, error)
	Set(ctx context.Context, pairID string, record OpportunityRecord) error
	Close() error
}

type redisOpportunityCache struct {
	client *redis.Client
	opts   Options
}

// NewRedisOpportunityCache builds an opportunity dedup cache on redis.
func NewRedisOpportunityCache(opts Options) (OpportunityCache, error) {
	client, err := newRedisClient(opts)
	if err != nil {
		return nil, err
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = "pair_best"
	}
	return &redisOpportunityCache{client: client, opts: opts}, nil
}

func (c *redisOpportunityCache) key(pairID string) string {
	return fmt.Sprintf("%s:%s", c.opts.Prefix, pairID)
}

func (c *redisOpportunityCache) Get(ctx context.Context, pairID string) (*OpportunityRecord, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, c.key(pairID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var record OpportunityRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, false, err
	}
	return &record, true, nil
}

func (c *redisOpportunityCache) Set(ctx context.Context, pairID string, record OpportunityRecord) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(pairID), payload, c.opts.TTL).Err()
}

func (c *redisOpportunityCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
