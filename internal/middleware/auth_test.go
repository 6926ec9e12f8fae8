package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, role string, exp time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   "US00001",
		"email": "rahul@example.com",
		"role":  role,
		"exp":   exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func newProtectedApp(requiredRoles ...string) *fiber.App {
	app := fiber.New()
	handlers := []fiber.Handler{Protected(testSecret)}
	if len(requiredRoles) > 0 {
		handlers = append(handlers, RequireRole(requiredRoles...))
	}
	handlers = append(handlers, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id": c.Locals("userID"),
			"role":    c.Locals("role"),
		})
	})
	app.Get("/secure", handlers...)
	return app
}

func request(t *testing.T, app *fiber.App, token string) int {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	resp.Body.Close()
	return resp.StatusCode
}

func TestProtectedRejectsMissingToken(t *testing.T) {
	app := newProtectedApp()
	assert.Equal(t, http.StatusUnauthorized, request(t, app, ""))
}

func TestProtectedRejectsBadSignature(t *testing.T) {
	app := newProtectedApp()
	token := signToken(t, []byte("other-secret"), "player", time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusUnauthorized, request(t, app, token))
}

func TestProtectedRejectsExpiredToken(t *testing.T) {
	app := newProtectedApp()
	token := signToken(t, testSecret, "player", time.Now().Add(-time.Hour))
	assert.Equal(t, http.StatusUnauthorized, request(t, app, token))
}

func TestProtectedAcceptsValidToken(t *testing.T) {
	app := newProtectedApp()
	token := signToken(t, testSecret, "player", time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusOK, request(t, app, token))
}

func TestRequireRole(t *testing.T) {
	app := newProtectedApp("owner", "admin")

	player := signToken(t, testSecret, "player", time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusForbidden, request(t, app, player))

	owner := signToken(t, testSecret, "owner", time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusOK, request(t, app, owner))

	admin := signToken(t, testSecret, "admin", time.Now().Add(time.Hour))
	assert.Equal(t, http.StatusOK, request(t, app, admin))
}
