// Package auth implements the portal's access-control primitives: bearer
// token verification against the identity provider, the typed Principal
// derived from verified claims, and the authorization policy (admin via
// claim or email allowlist) that gates the members API.
package auth

import "strings"

// Principal is the authenticated caller, constructed fresh per request from a
// verified bearer token. It is a read-only projection of the decoded claim
// set and is never persisted.
type Principal struct {
	// ID is the stable subject identifier issued by the identity provider.
	ID string
	// Email is the verified email address, if the token carried one.
	Email string
	// Name is the display name, if present.
	Name string
	// Admin reflects the token's admin custom claim. It is one of two
	// sources of admin privilege; see Policy.IsAdminUser for the other.
	Admin bool
	// CustomRole is an optional role claim passed through unmodified.
	CustomRole string
	// Claims is the raw decoded claim set, passed through for callers that
	// need provider-specific claims. Treat as read-only.
	Claims map[string]any
}

// NormalizedEmail returns the principal's email lower-cased and trimmed, for
// case-insensitive comparison against the admin allowlist. Empty if the token
// carried no email claim.
func (p *Principal) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(p.Email))
}

// PrincipalFromClaims builds a Principal from a decoded claim map. The
// subject is required; everything else is optional and passed through.
func PrincipalFromClaims(subject string, claims map[string]any) *Principal {
	p := &Principal{
		ID:     subject,
		Claims: claims,
	}
	if email, ok := claims["email"].(string); ok {
		p.Email = email
	}
	if name, ok := claims["name"].(string); ok {
		p.Name = name
	}
	if admin, ok := claims["admin"].(bool); ok {
		p.Admin = admin
	}
	if role, ok := claims["role"].(string); ok {
		p.CustomRole = role
	}
	return p
}
