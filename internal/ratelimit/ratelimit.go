package ratelimit

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter answers whether a caller identified by key may proceed.
// Handed to the API server as an explicit dependency so its lifecycle
// and backing store stay visible at the call site.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Config selects the limiter backend. With Enabled false every request
// passes. With a redis address the window counters live in redis and
// are shared across instances; otherwise they are process-local.
type Config struct {
	Enabled   bool `mapstructure:"enabled"`
	PerMinute int  `mapstructure:"per_minute"`
	Redis     struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		Db       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
}

// New builds the limiter the config asks for.
func New(cfg Config) Limiter {
	if !cfg.Enabled {
		return &noopLimiter{}
	}

	limit := cfg.PerMinute
	if limit <= 0 {
		limit = 60
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Db,
		})
		return &redisLimiter{client: client, limit: limit}
	}

	return &memoryLimiter{limit: limit, windows: make(map[string]*window)}
}

type noopLimiter struct{}

func (l *noopLimiter) Allow(ctx context.Context, key string) bool {
	return true
}

// redisLimiter counts requests per key in one-minute fixed windows.
type redisLimiter struct {
	client *redis.Client
	limit  int
}

func (l *redisLimiter) Allow(ctx context.Context, key string) bool {
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/60)

	n, err := l.client.Incr(ctx, bucket).Result()
	if err != nil {
		// A broken limiter backend must not take the API down.
		log.Printf("ratelimit: redis incr failed (%v)", err)
		return true
	}
	if n == 1 {
		l.client.Expire(ctx, bucket, 2*time.Minute)
	}

	return n <= int64(l.limit)
}

// memoryLimiter is the process-local fallback, a per-key fixed window
// refilled once a minute.
type memoryLimiter struct {
	limit   int
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count   int
	started int64
}

func (l *memoryLimiter) Allow(ctx context.Context, key string) bool {
	nowMin := time.Now().Unix() / 60

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || w.started != nowMin {
		// Drop windows from past minutes so keys that stopped
		// reporting do not accumulate.
		for k, old := range l.windows {
			if old.started != nowMin {
				delete(l.windows, k)
			}
		}
		l.windows[key] = &window{count: 1, started: nowMin}
		return true
	}

	w.count++
	return w.count <= l.limit
}
