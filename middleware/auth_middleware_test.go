package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/quizmaster/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func newTestApp() *fiber.App {
	app := fiber.New()
	whoami := func(c *fiber.Ctx) error {
		requester, ok := CurrentRequester(c)
		if !ok {
			return c.JSON(fiber.Map{"anonymous": true})
		}
		return c.JSON(fiber.Map{"id": requester.ID, "admin": requester.IsAdmin})
	}
	app.Get("/protected", Protected(testSecret), whoami)
	app.Get("/optional", OptionalAuth(testSecret), whoami)
	app.Get("/admin", Protected(testSecret), AdminRequired(), whoami)
	return app
}

func tokenFor(t *testing.T, role string, ttl time.Duration) string {
	t.Helper()
	token, err := IssueToken(testSecret, &models.User{ID: uuid.New(), Role: role}, ttl)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func statusOf(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp.StatusCode
}

func TestProtectedRoutes(t *testing.T) {
	app := newTestApp()
	user := tokenFor(t, models.RoleUser, time.Hour)
	admin := tokenFor(t, models.RoleAdmin, time.Hour)
	expired := tokenFor(t, models.RoleUser, -time.Hour)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"missing token", "/protected", "", fiber.StatusBadRequest},
		{"expired token", "/protected", expired, fiber.StatusUnauthorized},
		{"valid token", "/protected", user, fiber.StatusOK},
		{"anonymous optional", "/optional", "", fiber.StatusOK},
		{"signed optional", "/optional", user, fiber.StatusOK},
		{"bad optional token", "/optional", "garbage", fiber.StatusUnauthorized},
		{"admin route as user", "/admin", user, fiber.StatusForbidden},
		{"admin route as admin", "/admin", admin, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusOf(t, app, tt.path, tt.token); got != tt.status {
				t.Errorf("expected %d, got %d", tt.status, got)
			}
		})
	}
}

func TestParseToken(t *testing.T) {
	user := &models.User{ID: uuid.New(), Role: models.RoleAdmin}
	token, err := IssueToken(testSecret, user, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	requester, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requester.ID != user.ID || !requester.IsAdmin {
		t.Errorf("unexpected requester %+v", requester)
	}

	if _, err := ParseToken("another-secret", token); err == nil {
		t.Error("expected a signature error")
	}
}
