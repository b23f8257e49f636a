package domain

import "slices"

// Role is the authorization role carried in access tokens.
type Role string

const (
	RoleUser  Role = "ROLE_USER"
	RoleAdmin Role = "ROLE_ADMIN"
)

// Capability names an action a role may perform.
type Capability string

const (
	CapCatalogRead  Capability = "catalog:read"
	CapCatalogWrite Capability = "catalog:write"
	CapCartWrite    Capability = "cart:write"
	CapOrderWrite   Capability = "order:write"
	CapReviewWrite  Capability = "review:write"
	CapNoticeWrite  Capability = "notice:write"
	CapMemberRead   Capability = "member:read"
)

var userCapabilities = []Capability{CapCatalogRead, CapCartWrite, CapOrderWrite, CapReviewWrite}

var roleCapabilities = map[Role][]Capability{
	RoleUser:  userCapabilities,
	RoleAdmin: append(slices.Clone(userCapabilities), CapCatalogWrite, CapNoticeWrite, CapMemberRead),
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Capabilities returns a copy of the capability set granted to r.
func (r Role) Capabilities() []Capability {
	return slices.Clone(roleCapabilities[r])
}
