package handlers

import (
	"fithub/middleware"
	"fithub/models"
	"fithub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupChampionshipRoutes(app *fiber.App, h *Handler) {
	app.Get("/api/championships", h.GetChampionships)

	secured := middleware.RequireSession(h.auth)
	app.Post("/api/championships", secured, h.CreateChampionship)
	app.Post("/api/championships/:id/enroll", secured, h.EnrollInChampionship)
}

func (h *Handler) GetChampionships(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().Championships)
}

func (h *Handler) CreateChampionship(c *fiber.Ctx) error {
	var req services.ChampionshipInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	champ, err := services.Apply(c.UserContext(), h.store, "create-championship",
		func(e *services.Engine, st *models.State) (models.Championship, models.CollectionSet, error) {
			return e.CreateChampionship(st, req)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(champ)
}

// EnrollInChampionship handles the solo, create-team and team modes.
func (h *Handler) EnrollInChampionship(c *fiber.Ctx) error {
	var req services.EnrollInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	champID := c.Params("id")
	champ, err := services.Apply(c.UserContext(), h.store, "championship-enroll",
		func(e *services.Engine, st *models.State) (models.Championship, models.CollectionSet, error) {
			return e.EnrollInChampionship(st, champID, req)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(champ)
}
