package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	red "github.com/redis/go-redis/v9"
)

// SlidingWindowConfig defines configuration for the sliding window limiter.
type SlidingWindowConfig struct {
	KeyPrefix string
	Window    time.Duration
	Limit     int
}

// RateLimitRepository tracks request attempts in Redis sorted sets, one set
// per identifier, scored by attempt time.
type RateLimitRepository struct {
	client *red.Client
	cfg    SlidingWindowConfig
}

// NewRateLimitRepository constructs a limiter using the provided Redis client and config.
func NewRateLimitRepository(client *red.Client, cfg SlidingWindowConfig) *RateLimitRepository {
	return &RateLimitRepository{client: client, cfg: cfg}
}

// Allow records an attempt for the identifier and reports whether the count
// within the active window stays at or below the configured limit. The trim,
// insert, and count run in one pipeline round trip.
func (r *RateLimitRepository) Allow(ctx context.Context, identifier string, at time.Time) (bool, error) {
	if r.cfg.Window <= 0 {
		return false, errors.New("window must be positive")
	}
	if r.cfg.Limit <= 0 {
		return false, errors.New("limit must be positive")
	}

	key := r.key(identifier)
	threshold := fmt.Sprintf("%d", at.Add(-r.cfg.Window).UnixNano())

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", threshold)
	pipe.ZAdd(ctx, key, red.Z{Score: float64(at.UnixNano()), Member: at.UnixNano()})
	countCmd := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, r.cfg.Window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis rate limit pipeline: %w", err)
	}

	return countCmd.Val() <= int64(r.cfg.Limit), nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.cfg.KeyPrefix == "" {
		return identifier
	}
	return fmt.Sprintf("%s:%s", r.cfg.KeyPrefix, identifier)
}
