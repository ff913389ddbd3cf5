package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxbase-eu/identityswitcher/internal/directory"
	"github.com/fluxbase-eu/identityswitcher/internal/session"
)

func newAuthTestApp(t *testing.T) (*fiber.App, *session.Service) {
	t.Helper()
	sessions := session.NewService(session.NewMockRepository(),
		"test-secret-key-at-least-32-chars-long", time.Hour)

	app := fiber.New()
	app.Get("/api/v1/tenants/:tenantID/ping", RequireAdmin(sessions), func(c fiber.Ctx) error {
		claims := callerClaims(c)
		return c.JSON(fiber.Map{"tenant": claims.TenantID})
	})
	return app, sessions
}

func TestRequireAdmin_TokenFromCookie(t *testing.T) {
	app, sessions := newAuthTestApp(t)
	_, token, err := sessions.SignIn(context.Background(), 1,
		&directory.User{ID: 1, Username: "admin"}, "127.0.0.1", true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/1/ping", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdmin_TokenFromBearerHeader(t *testing.T) {
	app, sessions := newAuthTestApp(t)
	_, token, err := sessions.SignIn(context.Background(), 1,
		&directory.User{ID: 1, Username: "admin"}, "127.0.0.1", true)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequireAdmin_GarbageTokenRejected(t *testing.T) {
	app, _ := newAuthTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/1/ping", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRequireAdmin_SignedOutSessionRejected(t *testing.T) {
	app, sessions := newAuthTestApp(t)
	sess, token, err := sessions.SignIn(context.Background(), 1,
		&directory.User{ID: 1, Username: "admin"}, "127.0.0.1", true)
	require.NoError(t, err)
	require.NoError(t, sessions.SignOut(context.Background(), sess.ID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tenants/1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
