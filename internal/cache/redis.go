package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultTTL = 240 * time.Hour // 10 days

// Options configure a redis-backed cache.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Prefix   string
}

func newRedisClient(opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}
