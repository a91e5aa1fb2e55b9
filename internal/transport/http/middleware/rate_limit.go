package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appLogger "github.com/theranjitkumar/blogger/internal/infra/logger"
)

// RateLimitStore reports whether an attempt by the identifier fits inside the
// configured sliding window.
type RateLimitStore interface {
	Allow(ctx context.Context, identifier string, at time.Time) (bool, error)
}

// RateLimiter wraps a store into per-route Gin middleware.
type RateLimiter struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		logger: logger,
		now:    time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// Limit enforces the store's sliding window keyed by client IP. Store errors
// fail open: a broken Redis must not take authentication down with it.
func (rl *RateLimiter) Limit(store RateLimitStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		allowed, err := store.Allow(c.Request.Context(), ip, rl.now())
		if err != nil {
			rl.logger.Error("rate limit check failed",
				zap.Error(err),
				zap.String("client_ip", appLogger.MaskIP(ip)),
			)
			c.Next()
			return
		}

		if !allowed {
			rl.logger.Warn("rate limit exceeded",
				zap.String("client_ip", appLogger.MaskIP(ip)),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, newErrorResponse(c, "too many requests, slow down"))
			return
		}

		c.Next()
	}
}
