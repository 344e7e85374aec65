package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fithub/services"
	"fithub/storage"
	"fithub/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAdminToken = "admin-token"

var refTime = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

func newTestApp(t *testing.T) (*fiber.App, *services.Store) {
	t.Helper()
	ctx := context.Background()

	local, err := storage.OpenLocal(ctx, filepath.Join(t.TempDir(), "fithub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = local.Close() })

	engine := services.NewEngine(services.DefaultPolicy, func() time.Time { return refTime })
	store := services.NewStore(engine, local)
	require.NoError(t, store.Open(ctx))

	proofs, err := utils.NewLocalProofStore(filepath.Join(t.TempDir(), "uploads"), "/uploads")
	require.NoError(t, err)

	app := fiber.New()
	SetupRoutes(app, New(store, services.NewAuthService(local, store, bcrypt.MinCost), proofs), testAdminToken)
	return app, store
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func callList(t *testing.T, app *fiber.App, path string) (int, []any) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func signUp(t *testing.T, app *fiber.App) {
	t.Helper()
	status, body := call(t, app, "POST", "/api/auth/signup", map[string]string{
		"name": "Lucas Santiago", "email": "lucas@fithub.app", "password": "secret1", "city": "Salvador",
	})
	require.Equal(t, fiber.StatusCreated, status, body)
}

func TestSessionRequiredRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/api/events/e1/join", "/api/billing/pay", "/api/teams"} {
		status, body := call(t, app, "POST", path, map[string]any{})
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
		assert.Equal(t, "login required", body["error"], path)
	}

	status, _ := callList(t, app, "/api/feed")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestAuthFlow(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := call(t, app, "GET", "/api/auth/session", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["authenticated"])

	signUp(t, app)
	status, body = call(t, app, "GET", "/api/auth/session", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["authenticated"])

	status, _ = call(t, app, "POST", "/api/auth/signup", map[string]string{
		"name": "Other", "email": "LUCAS@fithub.app", "password": "secret1",
	})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = call(t, app, "POST", "/api/auth/signout", nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, _ = call(t, app, "POST", "/api/auth/signin", map[string]string{"email": "lucas@fithub.app", "password": "wrong!!"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, body = call(t, app, "POST", "/api/auth/signin", map[string]string{"email": "lucas@fithub.app", "password": "secret1"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Lucas Santiago", body["name"])
}

func TestJoinFlow(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)

	status, body := call(t, app, "POST", "/api/events/e1/join", nil)
	require.Equal(t, fiber.StatusOK, status, body)
	event := body["event"].(map[string]any)
	assert.EqualValues(t, 7, event["slots_taken"])

	status, _ = call(t, app, "POST", "/api/events/e1/join", nil)
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = call(t, app, "POST", "/api/events/nope/join", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, list := callList(t, app, "/api/enrollments")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, list, 1)
}

func TestJoinEntryClosed(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)

	status, body := call(t, app, "POST", "/api/events", map[string]any{
		"sport": "Basquete", "venue_id": "arena_x", "slots_total": 4,
		"datetime": refTime.Add(5 * time.Minute),
	})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, body = call(t, app, "POST", "/api/events/"+body["id"].(string)+"/join", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "entry closed for this event", body["error"])
}

func TestCheckInWithUploadedProof(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)
	status, _ := call(t, app, "POST", "/api/events/e2/join", nil)
	require.Equal(t, fiber.StatusOK, status)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("method", "photo"))
	part, err := w.CreateFormFile("proof", "selfie.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/events/e2/checkin", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	status, body := send(t, app, req)
	require.Equal(t, fiber.StatusOK, status, body)

	entry := body["entry"].(map[string]any)
	assert.Equal(t, "e2", entry["event_id"])
	assert.True(t, strings.HasPrefix(entry["proof"].(string), "/uploads/proofs/e2/"), entry["proof"])
	assert.EqualValues(t, 5, entry["points"])

	status, list := callList(t, app, "/api/history")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, list, 1)
}

func TestCheckInValidation(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)

	status, _ := call(t, app, "POST", "/api/events/e2/checkin", map[string]string{"method": "audio", "proof_url": "x"})
	assert.Equal(t, fiber.StatusNotFound, status, "enrollment is checked before the method")

	status, _ = call(t, app, "POST", "/api/events/e2/checkin", map[string]string{"method": "video", "proof_url": "https://v"})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = call(t, app, "POST", "/api/events/e2/join", nil)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, app, "POST", "/api/events/e2/checkin", map[string]string{"method": "audio", "proof_url": "x"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
}

func TestUploadWithUnknownMethodIsRefused(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)
	status, _ := call(t, app, "POST", "/api/events/e2/join", nil)
	require.Equal(t, fiber.StatusOK, status)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("method", "audio"))
	part, err := w.CreateFormFile("proof", "clip.mp3")
	require.NoError(t, err)
	_, err = part.Write([]byte("mp3"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/events/e2/checkin", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	status, body := send(t, app, req)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status, body)

	status, list := callList(t, app, "/api/history")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, list)
}

func TestThirdCancellationSuspends(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)

	for _, id := range []string{"e1", "e2", "e4"} {
		status, _ := call(t, app, "POST", "/api/events/"+id+"/join", nil)
		require.Equal(t, fiber.StatusOK, status, id)
	}

	status, body := call(t, app, "POST", "/api/events/e1/cancel", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 2, body["remaining"])
	call(t, app, "POST", "/api/events/e2/cancel", nil)
	status, body = call(t, app, "POST", "/api/events/e4/cancel", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["suspended"])

	status, body = call(t, app, "POST", "/api/events/e1/join", nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.NotEmpty(t, body["suspended_until"])
}

func TestBillingPay(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)

	status, _ := call(t, app, "POST", "/api/billing/pay", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	call(t, app, "POST", "/api/events/e1/join", nil)
	status, body := call(t, app, "GET", "/api/billing", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["due"])

	status, body = call(t, app, "POST", "/api/billing/pay", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 0, body["due"])
	assert.Equal(t, true, body["paid"])

	status, _ = call(t, app, "POST", "/api/billing/pay", nil)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestChampionshipEnrollment(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)

	status, body := call(t, app, "POST", "/api/championships/champ1/enroll", map[string]string{"mode": "solo"})
	require.Equal(t, fiber.StatusOK, status, body)

	status, _ = call(t, app, "POST", "/api/championships/champ1/enroll", map[string]string{"mode": "solo"})
	assert.Equal(t, fiber.StatusConflict, status)

	status, _ = call(t, app, "POST", "/api/championships/champ1/enroll", map[string]string{"mode": "league"})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = call(t, app, "POST", "/api/championships/missing/enroll", map[string]string{"mode": "solo"})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCommunityRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	signUp(t, app)

	status, body := call(t, app, "POST", "/api/venues", map[string]string{"name": "Quadra Nova", "neighborhood": "Itaigara"})
	require.Equal(t, fiber.StatusCreated, status, body)
	assert.Equal(t, "Quadra Nova · Itaigara", body["label"])

	status, _ = call(t, app, "POST", "/api/venues", map[string]string{"name": ""})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = call(t, app, "POST", "/api/chat", map[string]string{"text": "  bora  "})
	assert.Equal(t, fiber.StatusCreated, status)

	status, _ = call(t, app, "POST", "/api/teams/tigers/ping", map[string]string{"message": "Jogo hoje?"})
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, "POST", "/api/teams/tigers/ping/respond", map[string]any{"member": "Caio Silva", "confirm": true})
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, "POST", "/api/teams/tigers/ping/respond", map[string]any{"member": "Estranho", "confirm": true})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)

	status, _ = call(t, app, "DELETE", "/api/notifications", nil)
	assert.Equal(t, fiber.StatusNoContent, status)

	status, list := callList(t, app, "/api/notifications")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, list)
}

func TestNearbyVenues(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := call(t, app, "GET", "/api/venues/nearby", nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, list := callList(t, app, "/api/venues/nearby?lat=-13.0&lng=-38.5")
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, list)
	first := list[0].(map[string]any)
	last := list[len(list)-1].(map[string]any)
	assert.GreaterOrEqual(t, first["distance_km"].(float64), 0.0)
	assert.EqualValues(t, -1, last["distance_km"])
}

func TestAdminDashboard(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := call(t, app, "GET", "/api/admin/dashboard", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	req := httptest.NewRequest("GET", "/api/admin/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	status, body := send(t, app, req)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 4, body["events"])
	assert.EqualValues(t, 6+2+9+12, body["players_online"])
}
