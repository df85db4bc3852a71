package utils

import (
	"strings"
	"time"

	"masterycourse/backend/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// SessionCookie is the cookie the identity provider sets next to the bearer header.
const SessionCookie = "session_token"

// Identity is what the external session vouches for: the Discord account id
// plus display fields used to provision the user.
type Identity struct {
	DiscordID string
	Name      string
	Avatar    string
	Email     string
}

type SessionClaims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a session for the given identity. The identity
// provider issues these in production; the server only needs it for tooling and tests.
func GenerateSessionToken(id Identity, cfg *config.Config, ttl time.Duration) (string, error) {
	claims := SessionClaims{
		Name:    id.Name,
		Picture: id.Avatar,
		Email:   id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.DiscordID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SessionSecret))
}

func ExtractIdentityFromToken(c *fiber.Ctx, cfg *config.Config) (Identity, error) {
	tokenString := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		tokenString = c.Cookies(SessionCookie)
	}
	if tokenString == "" {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Missing session token")
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.SessionSecret), nil
	})
	if err != nil || !token.Valid {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Invalid session token")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "Session has no account id")
	}

	return Identity{
		DiscordID: claims.Subject,
		Name:      claims.Name,
		Avatar:    claims.Picture,
		Email:     claims.Email,
	}, nil
}
