package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"inventory-backend/internal/config"
	"inventory-backend/internal/registry"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
)

// JWTMiddleware admits requests carrying a valid access token. Refresh
// tokens are rejected here.
func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Missing Authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg, parts[1], TokenTypeAccess)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserNameKey, claims.Name)

		return c.Next()
	}
}

// ActorFrom reads the authenticated user set by JWTMiddleware.
func ActorFrom(c *fiber.Ctx) registry.Actor {
	var a registry.Actor
	if id, ok := c.Locals(CtxUserIDKey).(uint); ok && id != 0 {
		a.UserID = &id
	}
	a.Name, _ = c.Locals(CtxUserNameKey).(string)
	return a
}
