package middleware

import (
	"context"
	"strings"

	"threadboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

const principalLocal = "principal"

// PrincipalResolver turns a bearer credential into the acting principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired rejects requests without a valid bearer credential and stores
// the resolved principal in the request locals.
func AuthRequired(resolver PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := BearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Not authorized to access this route"))
		}

		principal, err := resolver.Resolve(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}

		SetPrincipal(c, principal)
		return c.Next()
	}
}

// OptionalAuth attaches the principal when a valid bearer credential is present
// and lets anonymous or unverifiable requests through untouched.
func OptionalAuth(resolver PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := BearerToken(c); tokenString != "" {
			if principal, err := resolver.Resolve(c.UserContext(), tokenString); err == nil {
				SetPrincipal(c, principal)
			}
		}
		return c.Next()
	}
}

// SetPrincipal stores p in the request locals and tags the request context with its id.
func SetPrincipal(c *fiber.Ctx, p models.Principal) {
	c.Locals(principalLocal, p)
	c.SetUserContext(WithUserID(c.UserContext(), p.ID))
}

// PrincipalFrom returns the principal stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (models.Principal, bool) {
	p, ok := c.Locals(principalLocal).(models.Principal)
	return p, ok
}
