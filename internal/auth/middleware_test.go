package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func middlewareApp(svc *Service) *fiber.App {
	app := fiber.New()
	app.Get("/protected", RequireAuth(svc), func(c *fiber.Ctx) error {
		userID, _ := c.Locals("user_id").(string)
		return c.JSON(fiber.Map{"user_id": userID})
	})
	return app
}

func signTestToken(t *testing.T, secret, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: userID})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestRequireAuthAcceptsServiceToken(t *testing.T) {
	svc := NewService("secret", nil)
	app := middlewareApp(svc)

	token, err := svc.signToken("walker-1", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["user_id"] != "walker-1" {
		t.Fatalf("expected walker-1 in locals, got %q", body["user_id"])
	}
}

func TestRequireAuthMissingToken(t *testing.T) {
	app := middlewareApp(NewService("secret", nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAuthWrongSecret(t *testing.T) {
	app := middlewareApp(NewService("secret", nil))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "other", "walker-1"))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	svc := NewService("secret", nil)
	app := middlewareApp(svc)

	token, err := svc.signToken("walker-1", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an expired token, got %d", resp.StatusCode)
	}
}

func TestRequireAuthEmptyUserClaim(t *testing.T) {
	app := middlewareApp(NewService("secret", nil))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "secret", ""))
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a token without a user, got %d", resp.StatusCode)
	}
}

func TestRequireAuthValidatorFailure(t *testing.T) {
	orig := validateAccessTokenFn
	validateAccessTokenFn = func(*Service, string) (string, error) {
		return "", errors.New("boom")
	}
	defer func() { validateAccessTokenFn = orig }()

	app := middlewareApp(NewService("secret", nil))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestBearerFromHeader(t *testing.T) {
	if got := bearerFromHeader("Bearer abc"); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := bearerFromHeader("bearer abc"); got != "abc" {
		t.Fatalf("expected case-insensitive scheme, got %q", got)
	}
	if got := bearerFromHeader("Token abc"); got != "" {
		t.Fatalf("expected empty for wrong scheme, got %q", got)
	}
	if got := bearerFromHeader(""); got != "" {
		t.Fatalf("expected empty for missing header, got %q", got)
	}
}
