package middleware

import (
	"github.com/gofiber/fiber/v2"

	"docspot/internal/identity"
)

// UserIDLocalKey is the key under which Auth stores the authenticated user id.
const UserIDLocalKey = "user_id"

// Auth rejects requests without a valid bearer token and stores the token's user id in locals.
func Auth(v identity.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := identity.BearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return WriteError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		}
		userID, err := v.Verify(token)
		if err != nil {
			return WriteError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
		}
		c.Locals(UserIDLocalKey, userID)
		return c.Next()
	}
}

// UserID returns the user id stored by Auth, or "".
func UserID(c *fiber.Ctx) string {
	if s, ok := c.Locals(UserIDLocalKey).(string); ok {
		return s
	}
	return ""
}
