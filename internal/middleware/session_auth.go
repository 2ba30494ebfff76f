package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sstracker/sstracker-backend/internal/services"
)

// Locals keys set by RequireSession.
const (
	PrincipalKey = "principal"
	AuthKindKey  = "auth_kind"
	TokenKey     = "session_token"
)

// RequireSession validates the bearer token against each directory in turn
// and stores the resolved principal in the request locals. Routes shared by
// both user classes pass both directories; per-class routes pass one.
func RequireSession(sessions *services.SessionManager, dirs ...services.Directory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "missing session token",
			})
		}

		for _, dir := range dirs {
			p, err := sessions.Validate(dir, token)
			if err == nil {
				c.Locals(PrincipalKey, p)
				c.Locals(AuthKindKey, dir.Kind())
				c.Locals(TokenKey, token)
				return c.Next()
			}
			if errors.Is(err, services.ErrSessionExpired) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"error":   services.ErrSessionExpired.Error(),
				})
			}
			if !errors.Is(err, services.ErrSessionInvalid) {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"success": false,
					"error":   "session validation failed",
				})
			}
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"error":   services.ErrSessionInvalid.Error(),
		})
	}
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	// Fallback for clients that send the raw token.
	return strings.TrimSpace(auth)
}

// Principal pulls the authenticated principal out of the request locals.
func Principal(c *fiber.Ctx) services.Principal {
	p, _ := c.Locals(PrincipalKey).(services.Principal)
	return p
}
