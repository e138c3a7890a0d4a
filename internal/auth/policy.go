// policy.go implements the authorization policy: extracting and verifying the
// bearer credential, and the two-source admin check (admin custom claim OR
// server-side email allowlist). Either source grants admin access; neither is
// authoritative over the other. The allowlist path exists so admin status can
// be granted operationally via configuration without redeploying claim
// issuance at the identity provider.
package auth

import (
	"context"
	"net/http"
	"strings"
)

// Status is the outcome kind of an authorization check.
type Status int

const (
	// StatusAllowed means the request carries a valid credential with
	// sufficient privilege. Decision.Principal is non-nil.
	StatusAllowed Status = iota
	// StatusUnauthenticated means the credential is missing or invalid.
	StatusUnauthenticated
	// StatusForbidden means the credential is valid but the principal lacks
	// the required privilege.
	StatusForbidden
)

// Decision is the outcome of an authorization check. Exactly one variant
// holds: Allowed carries a Principal, the other two carry a Reason. Callers
// must switch on Status rather than assume success.
type Decision struct {
	Status    Status
	Principal *Principal
	Reason    string
}

// Allowed constructs an allowed decision for p.
func Allowed(p *Principal) Decision {
	return Decision{Status: StatusAllowed, Principal: p}
}

// Unauthenticated constructs a rejection for a missing or invalid credential.
func Unauthenticated(reason string) Decision {
	return Decision{Status: StatusUnauthenticated, Reason: reason}
}

// Forbidden constructs a rejection for insufficient privilege.
func Forbidden(reason string) Decision {
	return Decision{Status: StatusForbidden, Reason: reason}
}

// Reasons surfaced in Decision.Reason. These map onto the wire-level error
// strings in the middleware package.
const (
	ReasonMissingCredential = "missing bearer credential"
	ReasonInvalidToken      = "token verification failed"
	ReasonNotAdmin          = "admin privilege required"
)

// Policy decides who may do what. It is a pure function of the request plus
// the verifier and allowlist it was constructed with; it has no side effects
// and owns no mutable state.
type Policy struct {
	verifier  TokenVerifier
	allowlist map[string]bool
}

// NewPolicy builds a Policy from a verifier and a parsed admin email
// allowlist (lower-cased entries). A nil allowlist is treated as empty.
func NewPolicy(verifier TokenVerifier, allowlist map[string]bool) *Policy {
	if allowlist == nil {
		allowlist = map[string]bool{}
	}
	return &Policy{verifier: verifier, allowlist: allowlist}
}

// BearerToken extracts the token from an Authorization: Bearer header.
// Returns "" when the header is absent or not in Bearer form.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// RequireUser verifies the request's bearer credential. It distinguishes a
// missing credential from a failed verification so the middleware can emit
// the two different 401 bodies, but both are Unauthenticated decisions.
func (p *Policy) RequireUser(r *http.Request) Decision {
	token := BearerToken(r)
	if token == "" {
		return Unauthenticated(ReasonMissingCredential)
	}

	principal := p.verifier.Verify(r.Context(), token)
	if principal == nil {
		return Unauthenticated(ReasonInvalidToken)
	}

	return Allowed(principal)
}

// IsAdminUser reports whether the principal holds admin privilege from either
// source: the admin custom claim, or a case-insensitive match against the
// server-side email allowlist. A principal without an email can only be admin
// via the claim. Tolerates an empty allowlist without special-casing.
func (p *Policy) IsAdminUser(principal *Principal) bool {
	if principal == nil {
		return false
	}
	if principal.Admin {
		return true
	}
	email := principal.NormalizedEmail()
	return email != "" && p.allowlist[email]
}

// RequireAdmin verifies the credential and then checks admin privilege. A
// non-Allowed RequireUser result propagates unchanged.
func (p *Policy) RequireAdmin(r *http.Request) Decision {
	decision := p.RequireUser(r)
	if decision.Status != StatusAllowed {
		return decision
	}
	if !p.IsAdminUser(decision.Principal) {
		return Forbidden(ReasonNotAdmin)
	}
	return decision
}

// Verify exposes the underlying token verifier for callers that hold a raw
// token rather than an *http.Request.
func (p *Policy) Verify(ctx context.Context, token string) *Principal {
	return p.verifier.Verify(ctx, token)
}
