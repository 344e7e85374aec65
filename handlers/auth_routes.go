package handlers

import (
	"fithub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAuthRoutes(app *fiber.App, h *Handler) {
	auth := app.Group("/api/auth")
	auth.Post("/signup", h.SignUp)
	auth.Post("/signin", h.SignIn)
	auth.Post("/signout", h.SignOut)
	auth.Get("/session", h.Session)
}

func (h *Handler) SignUp(c *fiber.Ctx) error {
	var req services.SignUpInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	user, err := h.auth.SignUp(c.UserContext(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (h *Handler) SignIn(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	user, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(user)
}

func (h *Handler) SignOut(c *fiber.Ctx) error {
	if err := h.auth.SignOut(c.UserContext()); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) Session(c *fiber.Ctx) error {
	user, ok := h.auth.Session()
	if !ok {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	return c.JSON(fiber.Map{"authenticated": true, "user": user})
}
