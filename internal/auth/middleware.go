package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireAuth guards the session, walk, pet and social routes. Tokens
// go through the service's parse path so the claims shape lives in one
// place; handlers downstream read the walker's id from locals.
func RequireAuth(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		userID, err := validateAccessTokenFn(svc, token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token carries no user")
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}

var validateAccessTokenFn = (*Service).ValidateAccessToken

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
