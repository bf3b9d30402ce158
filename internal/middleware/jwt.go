package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/libraryhub/libraryhub/internal/auth"
)

// BearerAuth validates the Authorization bearer token and re-resolves its
// subject into a live account, so a still-valid token of a deleted user is
// rejected here rather than by the token service. The resolved user is
// stored in locals for downstream handlers.
func BearerAuth(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])

		u, err := svc.Authenticate(c.UserContext(), token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals("user", u)
		c.Locals("user_id", u.ID)
		return c.Next()
	}
}
