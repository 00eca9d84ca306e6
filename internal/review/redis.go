package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cnukaus/Polymarket-arbitrage/internal/matcher"
)

const defaultKey = "review_queue"

// RedisQueue is a Queue backed by a redis list, so reviews survive
// restarts and can be drained by a separate process.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a redis-backed review queue.
func NewRedisQueue(addr, password string, db int, key string) (*RedisQueue, error) {
	if addr == "" {
		return nil, fmt.Errorf("review: redis addr is required")
	}
	if key == "" {
		key = defaultKey
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisQueue{client: client, key: key}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, match matcher.MatchResult) error {
	payload, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("review: marshal match %s: %w", match.PairID, err)
	}
	return q.client.LPush(ctx, q.key, payload).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*matcher.MatchResult, bool, error) {
	raw, err := q.client.RPop(ctx, q.key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var match matcher.MatchResult
	if err := json.Unmarshal(raw, &match); err != nil {
		return nil, false, fmt.Errorf("review: decode match: %w", err)
	}
	return &match, true, nil
}

// Close releases the redis connection.
func (q *RedisQueue) Close() error {
	if q == nil || q.client == nil {
		return nil
	}
	return q.client.Close()
}
