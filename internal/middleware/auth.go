// Package middleware provides Gin HTTP middleware for the members API.
//
// Middleware ordering matters and is enforced in router.go:
//
//	Security → RequestID → Metrics → RateLimit → Auth → Handler
//
// Security headers run first so they appear on all responses including
// errors. Rate limiting runs before auth so throttled callers never cost a
// token verification. Auth resolves the bearer token to a principal; handlers
// read it from the request context.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/council-portal/council-portal/internal/auth"
	"github.com/council-portal/council-portal/internal/telemetry"
)

// Context keys populated by the auth middleware.
const (
	// PrincipalKey holds the *auth.Principal for the verified caller.
	PrincipalKey = "principal"
	// UserIDKey holds the caller's subject id; also read by the rate
	// limiter when an authenticated middleware chain runs it after auth.
	UserIDKey = "user_id"
	// IsAdminKey holds the policy's admin determination for the caller.
	IsAdminKey = "is_admin"
)

// RequireUser returns a Gin handler that rejects requests without a verified
// principal. A missing or malformed Authorization header and a token that
// fails verification are kept distinct on the wire: the former is a caller
// mistake, the latter a credential problem.
func RequireUser(policy *auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := policy.RequireUser(c.Request)
		if decision.Status != auth.StatusAllowed {
			abortUnauthenticated(c, decision)
			return
		}
		setPrincipal(c, policy, decision.Principal)
		c.Next()
	}
}

// RequireAdmin returns a Gin handler that rejects requests whose principal is
// not an admin under the policy (admin claim or email allowlist).
func RequireAdmin(policy *auth.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := policy.RequireAdmin(c.Request)
		switch decision.Status {
		case auth.StatusAllowed:
			setPrincipal(c, policy, decision.Principal)
			c.Next()
		case auth.StatusForbidden:
			telemetry.AuthFailuresTotal.WithLabelValues("forbidden").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
		default:
			abortUnauthenticated(c, decision)
		}
	}
}

func abortUnauthenticated(c *gin.Context, decision auth.Decision) {
	body := "Unauthorized"
	kind := "missing"
	if decision.Reason == auth.ReasonInvalidToken {
		body = "Invalid token"
		kind = "invalid"
	}
	telemetry.AuthFailuresTotal.WithLabelValues(kind).Inc()
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": body})
}

func setPrincipal(c *gin.Context, policy *auth.Policy, principal *auth.Principal) {
	c.Set(PrincipalKey, principal)
	c.Set(UserIDKey, principal.ID)
	c.Set(IsAdminKey, policy.IsAdminUser(principal))
}

// GetPrincipal reads the verified principal set by RequireUser/RequireAdmin.
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}

// IsAdmin reads the admin determination set by the auth middleware.
func IsAdmin(c *gin.Context) bool {
	v, exists := c.Get(IsAdminKey)
	if !exists {
		return false
	}
	admin, ok := v.(bool)
	return ok && admin
}
