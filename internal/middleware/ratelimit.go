package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"threadboard/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed rejects the request if Redis is unavailable.
	FailClosed
)

// RateLimiter counts requests per caller in fixed Redis windows.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter returns a limiter backed by rdb. A disabled limiter lets every request through.
func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

// Allow reports whether id may make another request against resource.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if l == nil || !l.enabled {
		return true, nil
	}
	if l.rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	// EXPIRE NX only arms a missing TTL, so the window is never extended and a
	// counter left without one by an earlier failure still gets reset.
	var incr *redis.IntCmd
	_, err := l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return incr.Val() <= int64(limit), nil
}

// Limit returns a handler enforcing limit requests per window, failing open.
func (l *RateLimiter) Limit(name string, limit int, window time.Duration) fiber.Handler {
	return l.LimitWithPolicy(name, limit, window, FailOpen)
}

// LimitWithPolicy keys by the authenticated principal when present, otherwise by remote IP.
func (l *RateLimiter) LimitWithPolicy(name string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if p, ok := PrincipalFrom(c); ok && p.ID != 0 {
			id = fmt.Sprintf("user:%d", p.ID)
		}

		allowed, err := l.Allow(c.UserContext(), name, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, rejecting",
					slog.String("resource", name), slog.String("error", err.Error()))
				return models.RespondWithError(c, fiber.StatusServiceUnavailable,
					models.NewServiceUnavailableError("Rate limit unavailable"))
			}
			return c.Next()
		}
		if !allowed {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError())
		}
		return c.Next()
	}
}
