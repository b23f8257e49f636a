package auth

import (
	"slices"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/domain"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller for the lifetime of one request.
type Principal struct {
	MemberID     string
	Identity     string
	Role         domain.Role
	Provider     string
	Capabilities []domain.Capability
	ExpiresAt    time.Time

	// Token is the access token the principal was built from.
	Token string
}

func newPrincipal(claims *Claims, token string) *Principal {
	p := &Principal{
		Identity:     claims.Identity,
		Role:         claims.Role,
		Provider:     claims.Provider,
		Capabilities: claims.Role.Capabilities(),
		Token:        token,
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p
}

// HasRole reports whether the principal holds one of roles.
func (p *Principal) HasRole(roles ...domain.Role) bool {
	return p != nil && slices.Contains(roles, p.Role)
}

// Can reports whether the principal's role grants capability.
func (p *Principal) Can(capability domain.Capability) bool {
	return p != nil && slices.Contains(p.Capabilities, capability)
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}
