package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cqms-io/support-center/internal/domain"
	apperrors "github.com/cqms-io/support-center/pkg/util"
)

// RequireCustomer ensures a customer is authenticated.
func RequireCustomer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Role() != domain.RoleCustomer || principal.Profile == nil {
			return apperrors.NewForbidden("customer role required")
		}
		return c.Next()
	}
}

// RequireSupport ensures a support agent is authenticated.
func RequireSupport() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Role() != domain.RoleSupport {
			return apperrors.NewForbidden("support role required")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures the caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
