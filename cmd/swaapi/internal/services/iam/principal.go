package iam

// Principal represents the identity forwarded by the platform gateway.
//
// This struct is IMMUTABLE after construction. Handlers receive it through
// the request context and must not modify Roles.
type Principal struct {
	// IdentityProvider names the upstream provider, e.g. "github" or "aad".
	IdentityProvider string

	// UserID is the platform-assigned stable identifier. Never empty.
	UserID string

	// UserDetails is the provider-supplied user name or email.
	UserDetails string

	// Roles lists the platform roles. Never nil.
	Roles []string
}

// HasRole reports whether the principal carries the named role.
func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}
