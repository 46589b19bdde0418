package middleware

import (
	"threadboard/internal/featureflags"
	"threadboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FeatureGate answers 503 when flag switches the feature off for the caller.
// Anonymous callers are evaluated as user 0.
func FeatureGate(flags *featureflags.Manager, flag, feature string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var userID uint
		if p, ok := PrincipalFrom(c); ok {
			userID = p.ID
		}
		if !flags.Allows(flag, userID) {
			return models.RespondWithError(c, fiber.StatusServiceUnavailable,
				models.NewServiceUnavailableError(feature+" is currently disabled"))
		}
		return c.Next()
	}
}
