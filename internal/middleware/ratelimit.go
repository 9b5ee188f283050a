package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"postblog/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// ErrLimiterUnavailable is returned when counting is enabled but no Redis client is configured.
var ErrLimiterUnavailable = errors.New("rate limiter has no redis client")

// FailPolicy decides what happens to a request when Redis cannot count it.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

// Rule describes one limited endpoint.
type Rule struct {
	// Name is the counter namespace. The request path is used when empty.
	Name   string
	Limit  int
	Window time.Duration
	Policy FailPolicy
}

// RateLimiter counts attempts per caller in fixed Redis windows.
// A disabled limiter allows everything without touching Redis.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter returns a limiter backed by rdb. The caller decides whether
// limits apply, usually from config.Config.RateLimitEnabled.
func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

// Enabled reports whether the limiter counts requests.
func (l *RateLimiter) Enabled() bool {
	return l.enabled
}

// Allow records one attempt by id against resource and reports whether it
// stays within limit for the current window.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if !l.enabled {
		return true, nil
	}
	if l.rdb == nil {
		return false, ErrLimiterUnavailable
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)
	cnt, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		// Counted by the client's metrics hook.
		return false, err
	}
	if cnt == 1 {
		l.rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

// Middleware enforces rule, keyed by the authenticated username when one is
// known and by remote IP otherwise.
func (l *RateLimiter) Middleware(rule Rule) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		id := "ip:" + c.IP()
		if username, ok := c.Locals("username").(string); ok && username != "" {
			id = "user:" + username
		}

		resource := rule.Name
		if resource == "" {
			resource = c.Path()
		}

		allowed, err := l.Allow(ctx, resource, id, rule.Limit, rule.Window)
		if err != nil {
			if rule.Policy == FailClosed {
				Logger.WarnContext(ctx, "rate limit unavailable, rejecting",
					"resource", resource, "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
					Error: "rate limit unavailable",
				})
			}
			Logger.DebugContext(ctx, "rate limit unavailable, allowing",
				"resource", resource, "error", err)
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
