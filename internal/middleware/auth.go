package middleware

import (
	"strings"

	"homilet-backend/internal/auth"
	"homilet-backend/internal/domain"
	"homilet-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const authLocal = "auth_user"

// RequireAuth validates the bearer token and stores the claims in Locals.
// Guests pass; use RequireFullUser for owner-scoped and payment routes.
func RequireAuth(verifier *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsFromHeader(c, verifier)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}
		c.Locals(authLocal, claims)
		return c.Next()
	}
}

// RequireFullUser rejects guest tokens with 403.
func RequireFullUser(verifier *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := claimsFromHeader(c, verifier)
		if err != nil {
			return response.Unauthorized(c, "Invalid or expired token")
		}
		if claims.Role == domain.RoleGuest {
			return response.Error(c, "This action is not available to guest accounts", fiber.StatusForbidden)
		}
		c.Locals(authLocal, claims)
		return c.Next()
	}
}

// OptionalAuth stores claims when a valid token is present but never rejects.
// Public detail views use it to decide whether to mask contact fields.
func OptionalAuth(verifier *auth.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims, err := claimsFromHeader(c, verifier); err == nil {
			c.Locals(authLocal, claims)
		}
		return c.Next()
	}
}

// GetClaims returns the authenticated claims, or nil.
func GetClaims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(authLocal).(*auth.Claims)
	return claims
}

func claimsFromHeader(c *fiber.Ctx, verifier *auth.TokenService) (*auth.Claims, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return nil, auth.ErrNotAuthenticated
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, auth.ErrNotAuthenticated
	}
	return verifier.Validate(strings.TrimSpace(parts[1]))
}
