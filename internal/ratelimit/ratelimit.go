// Package ratelimit throttles generation requests per user over Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/facestudio/facestudio/internal/config"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Limiter enforces a fixed-window per-user request cap. A nil Limiter allows
// everything, so deployments without Redis run unthrottled.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

// NewLimiter constructs a Limiter. Returns nil when Redis is unconfigured or
// the per-minute limit is zero.
func NewLimiter(cfg config.RedisConfig, perMinute int) *Limiter {
	if cfg.Addr == "" || perMinute <= 0 {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Limiter{client: client, limit: int64(perMinute), window: time.Minute}
}

// Allow reports whether the user may issue another generation request in the
// current window. Redis errors fail open with a logged warning; the ledger is
// the real backstop against abuse.
func (l *Limiter) Allow(ctx context.Context, userID uint64) bool {
	if l == nil {
		return true
	}

	key := fmt.Sprintf("ratelimit:generate:%d:%d", userID, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.client.TxPipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, errExec := pipe.Exec(ctx); errExec != nil {
		log.WithError(errExec).Warn("ratelimit: redis unavailable, allowing request")
		return true
	}

	return count.Val() <= l.limit
}

// Close releases the Redis connection.
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}
