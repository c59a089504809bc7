package ratelimit

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	domain "github.com/example/task-manager-demo/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// PerRoute returns fiber middleware that rate limits a single route by
// client IP. If the limiter's backing store is unavailable the middleware
// fails open: requests pass through and the degradation is logged once
// per outage, not per request.
func PerRoute(limiter domain.Limiter, cfg domain.Config, route string) fiber.Handler {
	logger := slog.Default()
	var degraded atomic.Bool

	return func(c *fiber.Ctx) error {
		key := route + ":" + c.IP()

		result, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			if degraded.CompareAndSwap(false, true) {
				logger.Warn("Rate limiter unavailable, failing open",
					"route", route,
					"error", err)
			}
			return c.Next()
		}

		if degraded.CompareAndSwap(true, false) {
			logger.Info("Rate limiter recovered", "route", route)
		}

		setRateLimitHeaders(c, result, cfg.RequestsPerWindow)

		if !result.Allowed {
			logger.Warn("Rate limit exceeded",
				"route", route,
				"ip", c.IP(),
				"limit", cfg.RequestsPerWindow)
			return sendRateLimitExceeded(c, result)
		}

		return c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(c *fiber.Ctx, result *domain.Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// sendRateLimitExceeded sends a 429 Too Many Requests response.
func sendRateLimitExceeded(c *fiber.Ctx, result *domain.Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":       "too_many_requests",
		"message":     fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
		"retry_after": retryAfter,
	})
}
