package middleware

import (
	"strings"

	"kanban/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the cookie carrying the signed session token for
// browser-style clients. API clients may send the same token as a Bearer
// header instead.
const SessionCookie = "session"

// Context keys populated by AuthRequired for downstream handlers.
const (
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

// AuthRequired resolves the current user from the session token and stores
// the identity in the request context. Anonymous requests (no token,
// invalid token, or a token whose user no longer exists) are redirected to
// the login page.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			// Expected format: "Bearer <token>"
			if parts := strings.SplitN(c.Get("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}

		user, err := authService.ResolveUser(token)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Could not resolve current user",
			})
		}
		if user == nil {
			return c.Redirect("/auth/login", fiber.StatusFound)
		}

		c.Locals(UserIDKey, user.ID)
		c.Locals(UsernameKey, user.Username)

		return c.Next()
	}
}
