package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"fithub/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	user *models.User
}

func (f fakeSession) Session() (*models.User, bool) {
	return f.user, f.user != nil
}

func TestRequireSession(t *testing.T) {
	tests := []struct {
		name   string
		user   *models.User
		status int
		body   string
	}{
		{"anonymous", nil, fiber.StatusUnauthorized, ""},
		{"signed in", &models.User{ID: "u1", Name: "Lucas"}, fiber.StatusOK, "u1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/me", RequireSession(fakeSession{tt.user}), func(c *fiber.Ctx) error {
				return c.SendString(UserID(c))
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/me", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				raw, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.body, string(raw))
			}
		})
	}
}

func TestAdminTokenMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		header   string
		status   int
	}{
		{"disabled", "", "Bearer anything", fiber.StatusUnauthorized},
		{"missing header", "s3cret", "", fiber.StatusUnauthorized},
		{"wrong token", "s3cret", "Bearer nope", fiber.StatusUnauthorized},
		{"bearer token", "s3cret", "Bearer s3cret", fiber.StatusOK},
		{"raw token", "s3cret", "s3cret", fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/admin", AdminTokenMiddleware(tt.expected), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
