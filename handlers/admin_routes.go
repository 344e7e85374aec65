package handlers

import (
	"fithub/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupAdminRoutes(app *fiber.App, h *Handler, adminToken string) {
	app.Get("/api/admin/dashboard", middleware.AdminTokenMiddleware(adminToken), h.GetAdminDashboard)
}

func (h *Handler) GetAdminDashboard(c *fiber.Ctx) error {
	return c.JSON(h.store.Engine().AdminDashboard(h.store.Snapshot()))
}
