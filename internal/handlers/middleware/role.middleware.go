package middleware

import (
	"fleetops/internal/policy"

	"github.com/gofiber/fiber/v2"
)

// RequireAction checks the caller's role against the authorization matrix for
// the given action. Must run after RequireAuth.
func (m *Middleware) RequireAction(action policy.Action) fiber.Handler {
	log := m.log.Function("RequireAction")

	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			log.Info("user not found in context", "action", action)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		if !policy.Can(user.Role, action) {
			log.Info(
				"action denied",
				"userID", user.ID,
				"role", user.Role,
				"action", action,
			)
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Insufficient permissions",
			})
		}

		return c.Next()
	}
}
