package middleware

import (
	"fmt"
	"strconv"
	"time"

	"masterycourse/backend/apierr"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	redisClient *redis.Client
	log         *utils.Logger
}

// NewRateLimiter returns a limiter backed by client. A nil client disables limiting.
func NewRateLimiter(client *redis.Client, log *utils.Logger) *RateLimiter {
	return &RateLimiter{redisClient: client, log: log}
}

// Limit allows limit requests per window for each signed-in user, falling
// back to the client IP when no identity is set. Redis errors let the request through.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rl == nil || rl.redisClient == nil || limit <= 0 {
			return c.Next()
		}

		subject := c.IP()
		if identity, ok := CurrentIdentity(c); ok {
			subject = identity.DiscordID
		}
		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, subject)

		ctx := c.UserContext()
		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			rl.log.Warn("rate limiter unavailable", "error", err)
			return c.Next()
		}

		// First hit of the window starts the TTL. A key without one is dropped.
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, window).Err(); err != nil {
				rl.log.Warn("rate limiter expire failed, dropping key", "key", key, "error", err)
				if err := rl.redisClient.Del(ctx, key).Err(); err != nil {
					rl.log.Error("rate limiter key left without ttl", "key", key, "error", err)
				}
				return c.Next()
			}
		}

		if count > int64(limit) {
			ttl, _ := rl.redisClient.TTL(ctx, key).Result()
			if ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(ttl.Seconds())))
			}
			return utils.APIError(c, apierr.New(fiber.StatusTooManyRequests, apierr.CodeRateLimited,
				fmt.Errorf("retry after %.0f seconds", ttl.Seconds())))
		}
		return c.Next()
	}
}
