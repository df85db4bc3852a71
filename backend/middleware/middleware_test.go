package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"masterycourse/backend/config"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware(t *testing.T) {
	cfg := &config.Config{SessionSecret: "secret"}
	app := fiber.New()
	app.Use(LoggingMiddleware(utils.NopLogger()))
	app.Get("/me", AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		identity, ok := CurrentIdentity(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(identity.DiscordID)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "Unauthorized", body.Error)
	assert.Equal(t, "Missing session token", body.Details)

	token, err := utils.GenerateSessionToken(utils.Identity{DiscordID: "42"}, cfg, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRateLimiterPassThrough(t *testing.T) {
	unreachable := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = unreachable.Close() })

	for name, limiter := range map[string]*RateLimiter{
		"nil client":  NewRateLimiter(nil, utils.NopLogger()),
		"redis error": NewRateLimiter(unreachable, utils.NopLogger()),
	} {
		t.Run(name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/progress", limiter.Limit("progress", 1, time.Minute), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})
			for i := 0; i < 3; i++ {
				resp, err := app.Test(httptest.NewRequest("POST", "/progress", nil))
				require.NoError(t, err)
				assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			}
		})
	}
}

// scriptedRedis answers rate limiter commands in process without a server.
type scriptedRedis struct {
	mu        sync.Mutex
	count     int64
	expireErr error
	calls     []string
}

func (s *scriptedRedis) DialHook(next redis.DialHook) redis.DialHook { return next }

func (s *scriptedRedis) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func (s *scriptedRedis) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.calls = append(s.calls, cmd.Name())
		switch c := cmd.(type) {
		case *redis.IntCmd:
			if cmd.Name() == "del" {
				s.count = 0
				c.SetVal(1)
				return nil
			}
			s.count++
			c.SetVal(s.count)
		case *redis.BoolCmd:
			if s.expireErr != nil {
				c.SetErr(s.expireErr)
				return s.expireErr
			}
			c.SetVal(true)
		case *redis.DurationCmd:
			c.SetVal(30 * time.Second)
		}
		return nil
	}
}

func (s *scriptedRedis) called(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func scriptedLimiterApp(t *testing.T, script *scriptedRedis, limit int) *fiber.App {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	client.AddHook(script)
	t.Cleanup(func() { _ = client.Close() })

	app := fiber.New()
	app.Post("/progress", NewRateLimiter(client, utils.NopLogger()).Limit("progress", limit, time.Minute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	script := &scriptedRedis{}
	app := scriptedLimiterApp(t, script, 2)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/progress", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/progress", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get(fiber.HeaderRetryAfter))

	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Code)
	assert.Equal(t, 1, script.called("expire"))
}

func TestRateLimiterDropsKeyWhenExpireFails(t *testing.T) {
	script := &scriptedRedis{expireErr: errors.New("READONLY replica")}
	app := scriptedLimiterApp(t, script, 1)

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/progress", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 3, script.called("del"), "a key without ttl is never kept")
}
