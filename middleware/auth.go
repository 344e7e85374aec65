package middleware

import (
	"log"

	"fithub/models"

	"github.com/gofiber/fiber/v2"
)

// SessionSource exposes the signed-in user of the running session.
type SessionSource interface {
	Session() (*models.User, bool)
}

// RequireSession rejects requests while nobody is signed in and attaches the
// session user to the request locals.
func RequireSession(src SessionSource) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := src.Session()
		if !ok {
			log.Printf("❌ [SESSION] login required for %s %s", c.Method(), c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": models.ErrLoginRequired.Error(),
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_name", user.Name)
		return c.Next()
	}
}

// UserID returns the id attached by RequireSession.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
