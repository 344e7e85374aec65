package handlers

import (
	"context"
	"errors"
	"log"
	"mime/multipart"

	"fithub/models"
	"fithub/services"

	"github.com/gofiber/fiber/v2"
)

// ProofStore keeps uploaded check-in proofs and returns their public URL.
type ProofStore interface {
	SaveProof(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

// Handler serves the HTTP API over one session store.
type Handler struct {
	store  *services.Store
	auth   *services.AuthService
	proofs ProofStore
}

func New(store *services.Store, auth *services.AuthService, proofs ProofStore) *Handler {
	return &Handler{store: store, auth: auth, proofs: proofs}
}

// SetupRoutes mounts every route group on app.
func SetupRoutes(app *fiber.App, h *Handler, adminToken string) {
	SetupAuthRoutes(app, h)
	SetupEventRoutes(app, h)
	SetupCommunityRoutes(app, h)
	SetupChampionshipRoutes(app, h)
	SetupStreamRoutes(app, h)
	SetupAdminRoutes(app, h, adminToken)
}

// writeError maps domain errors to HTTP statuses.
func writeError(c *fiber.Ctx, err error) error {
	var suspended *models.SuspendedError
	var invalid *models.ValidationError
	switch {
	case errors.As(err, &suspended):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":           err.Error(),
			"suspended_until": suspended.Until,
		})
	case errors.Is(err, models.ErrSuspended):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrLoginRequired),
		errors.Is(err, models.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case services.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrAlreadyEnrolled),
		errors.Is(err, models.ErrAlreadyRegistered),
		errors.Is(err, models.ErrAlreadyPaid),
		errors.Is(err, models.ErrEmailTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &invalid):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
			"field": invalid.Field,
		})
	case errors.Is(err, models.ErrEntryClosed),
		errors.Is(err, models.ErrEventFull),
		errors.Is(err, models.ErrInvalidCheckInMethod),
		errors.Is(err, models.ErrProofRequired),
		errors.Is(err, models.ErrNothingDue),
		errors.Is(err, models.ErrChampionshipFull),
		errors.Is(err, models.ErrInvalidEnrollmentMode),
		errors.Is(err, models.ErrNoActivePing),
		errors.Is(err, models.ErrNotTeamMember):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   "failed to save changes",
		"details": err.Error(),
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
}
