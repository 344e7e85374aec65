package handlers

import (
	"fithub/middleware"
	"fithub/models"
	"fithub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupCommunityRoutes(app *fiber.App, h *Handler) {
	session := middleware.RequireSession(h.auth)

	// 🔓 Public reads
	app.Get("/api/venues", h.GetVenues)
	app.Get("/api/venues/nearby", h.GetNearbyVenues)
	app.Get("/api/ranking", h.GetRanking)
	app.Get("/api/teams", h.GetTeams)
	app.Get("/api/stories", h.GetStories)

	// 🔐 Session required
	app.Post("/api/venues", session, h.AddVenue)
	app.Post("/api/teams", session, h.CreateTeam)
	app.Post("/api/teams/:id/notify", session, h.NotifyTeam)
	app.Post("/api/teams/:id/ping", session, h.PingTeam)
	app.Post("/api/teams/:id/ping/respond", session, h.RespondPing)
	app.Get("/api/friends", session, h.GetFriends)
	app.Post("/api/friends", session, h.AddFriend)
	app.Get("/api/chat", session, h.GetChat)
	app.Post("/api/chat", session, h.SendChat)
	app.Get("/api/notifications", session, h.GetNotifications)
	app.Delete("/api/notifications", session, h.ClearNotifications)
	app.Post("/api/stories", session, h.AddStory)
	app.Get("/api/kids", session, h.GetKids)
	app.Post("/api/kids", session, h.AddKid)
}

func (h *Handler) GetVenues(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().Venues)
}

func (h *Handler) GetNearbyVenues(c *fiber.Ctx) error {
	if c.Query("lat") == "" || c.Query("lng") == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "lat and lng are required"})
	}
	lat, lng := c.QueryFloat("lat"), c.QueryFloat("lng")
	return c.JSON(services.SortVenuesByDistance(h.store.Snapshot().Venues, lat, lng))
}

func (h *Handler) GetRanking(c *fiber.Ctx) error {
	filter := services.LeaderboardFilter{
		State:   c.Query("state"),
		City:    c.Query("city"),
		Venue:   c.Query("venue"),
		AgeBand: c.Query("age_band"),
	}
	return c.JSON(services.Leaderboard(h.store.Snapshot(), filter))
}

func (h *Handler) GetTeams(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().Teams)
}

func (h *Handler) GetStories(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().Stories)
}

func (h *Handler) AddVenue(c *fiber.Ctx) error {
	var req services.VenueInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	v, err := services.Apply(c.UserContext(), h.store, "add-venue",
		func(e *services.Engine, st *models.State) (models.Venue, models.CollectionSet, error) {
			return e.AddVenue(st, req)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}

func (h *Handler) CreateTeam(c *fiber.Ctx) error {
	var req services.TeamInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	t, err := services.Apply(c.UserContext(), h.store, "create-team",
		func(e *services.Engine, st *models.State) (models.Team, models.CollectionSet, error) {
			return e.CreateTeam(st, req)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *Handler) NotifyTeam(c *fiber.Ctx) error {
	var req struct {
		Prefix string `json:"prefix"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, err)
		}
	}
	teamID := c.Params("id")
	n, err := services.Apply(c.UserContext(), h.store, "notify-team",
		func(e *services.Engine, st *models.State) (models.Notification, models.CollectionSet, error) {
			return e.NotifyTeam(st, teamID, req.Prefix)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(n)
}

func (h *Handler) PingTeam(c *fiber.Ctx) error {
	var req struct {
		Message string `json:"message"`
		EventID string `json:"event_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	teamID := c.Params("id")
	t, err := services.Apply(c.UserContext(), h.store, "ping-team",
		func(e *services.Engine, st *models.State) (models.Team, models.CollectionSet, error) {
			return e.PingTeam(st, teamID, req.Message, req.EventID)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) RespondPing(c *fiber.Ctx) error {
	var req struct {
		Member  string `json:"member"`
		Confirm bool   `json:"confirm"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	teamID := c.Params("id")
	t, err := services.Apply(c.UserContext(), h.store, "ping-response",
		func(e *services.Engine, st *models.State) (models.Team, models.CollectionSet, error) {
			return e.RespondPing(st, teamID, req.Member, req.Confirm)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(t)
}

func (h *Handler) GetFriends(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().Friends)
}

func (h *Handler) AddFriend(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	f, err := services.Apply(c.UserContext(), h.store, "add-friend",
		func(e *services.Engine, st *models.State) (models.Friend, models.CollectionSet, error) {
			return e.AddFriend(st, req.Name)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(f)
}

func (h *Handler) GetChat(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().Chat)
}

func (h *Handler) SendChat(c *fiber.Ctx) error {
	var req struct {
		To   string `json:"to"`
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	msg, err := services.Apply(c.UserContext(), h.store, "chat",
		func(e *services.Engine, st *models.State) (models.ChatMessage, models.CollectionSet, error) {
			return e.SendChat(st, req.To, req.Text)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func (h *Handler) GetNotifications(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().Notifications)
}

func (h *Handler) ClearNotifications(c *fiber.Ctx) error {
	_, err := services.Apply(c.UserContext(), h.store, "clear-notifications",
		func(e *services.Engine, st *models.State) (struct{}, models.CollectionSet, error) {
			return struct{}{}, e.ClearNotifications(st), nil
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) AddStory(c *fiber.Ctx) error {
	var req services.StoryInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	s, err := services.Apply(c.UserContext(), h.store, "add-story",
		func(e *services.Engine, st *models.State) (models.Story, models.CollectionSet, error) {
			story, dirty := e.AddStory(st, req)
			return story, dirty, nil
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s)
}

func (h *Handler) GetKids(c *fiber.Ctx) error {
	return c.JSON(h.store.Snapshot().Kids)
}

func (h *Handler) AddKid(c *fiber.Ctx) error {
	var req services.KidInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, err)
	}
	k, err := services.Apply(c.UserContext(), h.store, "add-kid",
		func(e *services.Engine, st *models.State) (models.Kid, models.CollectionSet, error) {
			return e.AddKid(st, req)
		})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(k)
}
