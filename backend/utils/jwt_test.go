package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"masterycourse/backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identityApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, err := ExtractIdentityFromToken(c, cfg)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": id.DiscordID, "name": id.Name, "avatar": id.Avatar})
	})
	return app
}

func TestSessionTokenRoundTrip(t *testing.T) {
	cfg := &config.Config{SessionSecret: "secret"}
	token, err := GenerateSessionToken(Identity{DiscordID: "42", Name: "ada", Avatar: "a.png"}, cfg, time.Hour)
	require.NoError(t, err)
	app := identityApp(cfg)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", SessionCookie+"="+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSessionTokenRejected(t *testing.T) {
	cfg := &config.Config{SessionSecret: "secret"}
	app := identityApp(cfg)

	other, err := GenerateSessionToken(Identity{DiscordID: "42"}, &config.Config{SessionSecret: "other"}, time.Hour)
	require.NoError(t, err)
	expired, err := GenerateSessionToken(Identity{DiscordID: "42"}, cfg, -time.Minute)
	require.NoError(t, err)
	noSubject, err := GenerateSessionToken(Identity{}, cfg, time.Hour)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":    "",
		"garbage":    "Bearer not-a-token",
		"wrong key":  "Bearer " + other,
		"expired":    "Bearer " + expired,
		"no subject": "Bearer " + noSubject,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
}
