package middleware

import (
	"errors"

	"masterycourse/backend/config"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// IdentityKey is the fiber Locals key the session middleware stores the caller under.
const IdentityKey = "identity"

// AuthMiddleware rejects requests without a valid session and stores the
// caller's identity for the handlers.
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, err := utils.ExtractIdentityFromToken(c, cfg)
		if err != nil {
			message := "Unauthorized"
			var fe *fiber.Error
			if errors.As(err, &fe) {
				message = fe.Message
			}
			return utils.Unauthorized(c, message)
		}
		c.Locals(IdentityKey, identity)
		return c.Next()
	}
}

// CurrentIdentity returns the identity stored by AuthMiddleware.
func CurrentIdentity(c *fiber.Ctx) (utils.Identity, bool) {
	identity, ok := c.Locals(IdentityKey).(utils.Identity)
	return identity, ok && identity.DiscordID != ""
}
