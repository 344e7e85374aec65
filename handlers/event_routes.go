package handlers

import (
	"fithub/middleware"
	"fithub/models"
	"fithub/services"
	"fithub/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupEventRoutes(app *fiber.App, h *Handler) {
	session := middleware.RequireSession(h.auth)

	app.Get("/api/feed", h.GetFeed)

	app.Post("/api/events", session, h.CreateEvent)
	app.Post("/api/events/:id/join", session, h.JoinEvent)
	app.Post("/api/events/:id/reject", session, h.RejectEvent)
	app.Post("/api/events/:id/checkin", session, h.CheckIn)
	app.Post("/api/events/:id/cancel", session, h.CancelEnrollment)
	app.Post("/api/events/:id/finish", session, h.FinishEvent)
	app.Post("/api/events/:id/payment", session, h.TogglePaid)

	app.Get("/api/enrollments", session, h.GetEnrollments)
	app.Get("/api/profile", session, h.GetProfile)
	app.Get("/api/history", session, h.GetHistory)
	app.Get("/api/billing", session, h.GetBilling)
	app.Post("/api/billing/pay", session, h.Pay)
}

func (h *Handler) GetFeed(c *fiber.Ctx) error {
	return c.JSON(services.Feed(h.store.Snapshot(), c.Query("search")))
}

func (h *Handler) CreateEvent(c *fiber.Ctx) error {
	var req services.CreateEventInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	ev, err := services.Apply(c.UserContext(), h.store, "create-event",
		func(e *services.Engine, st *models.State) (models.Event, models.CollectionSet, error) {
			return e.CreateEvent(st, req)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ev)
}

func (h *Handler) JoinEvent(c *fiber.Ctx) error {
	res, err := h.store.Join(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) RejectEvent(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.Reject(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"dismissed": id})
}

// CheckIn accepts either a multipart "proof" file or a "proof_url" field.
func (h *Handler) CheckIn(c *fiber.Ctx) error {
	var req struct {
		Method   string `json:"method" form:"method"`
		ProofURL string `json:"proof_url" form:"proof_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	eventID := c.Params("id")
	method := models.CheckInMethod(req.Method)

	proof := req.ProofURL
	if file, err := c.FormFile("proof"); err == nil && file.Size > 0 {
		// Nothing is uploaded for a check-in the store would refuse.
		if _, enrolled := h.store.Snapshot().Enrollments[eventID]; !enrolled {
			return writeError(c, models.ErrNotEnrolled)
		}
		if !method.Valid() {
			return writeError(c, models.ErrInvalidCheckInMethod)
		}
		if h.proofs == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "proof uploads are not configured"})
		}
		key := utils.ProofKey(eventID, middleware.UserID(c), file.Filename, h.store.Engine().Now())
		url, err := h.proofs.SaveProof(c.UserContext(), file, key)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to store proof", "details": err.Error()})
		}
		proof = url
	}

	res, err := h.store.CheckIn(c.UserContext(), eventID, method, proof)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) CancelEnrollment(c *fiber.Ctx) error {
	res, err := h.store.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) FinishEvent(c *fiber.Ctx) error {
	var req services.FinishInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	res, err := h.store.FinishEvent(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) TogglePaid(c *fiber.Ctx) error {
	en, err := h.store.TogglePaid(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(en)
}

func (h *Handler) GetEnrollments(c *fiber.Ctx) error {
	return c.JSON(services.Enrollments(h.store.Snapshot()))
}

func (h *Handler) GetProfile(c *fiber.Ctx) error {
	return c.JSON(services.Profile(h.store.Snapshot()))
}

func (h *Handler) GetHistory(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().History)
}

func (h *Handler) GetBilling(c *fiber.Ctx) error {
	summary, err := h.store.Billing(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}

func (h *Handler) Pay(c *fiber.Ctx) error {
	summary, err := h.store.Pay(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(summary)
}
