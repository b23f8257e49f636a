package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/domain"
)

// RequireAuthenticated ensures a principal was installed by the gate.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return ToDomainError(ErrMissingToken)
		}
		return c.Next()
	}
}

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return ToDomainError(ErrMissingToken)
		}
		if !principal.HasRole(allowed...) {
			return ToDomainError(fmt.Errorf("%w: role %s", ErrAccessDenied, principal.Role))
		}
		return c.Next()
	}
}

// RequireCapability ensures the principal's role grants capability.
func RequireCapability(capability domain.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return ToDomainError(ErrMissingToken)
		}
		if !principal.Can(capability) {
			return ToDomainError(fmt.Errorf("%w: missing %s", ErrAccessDenied, capability))
		}
		return c.Next()
	}
}
