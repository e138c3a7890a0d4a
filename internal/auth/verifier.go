// verifier.go defines the TokenVerifier contract and its implementations.
// Every verification failure — malformed token, expired token, bad signature,
// identity provider unreachable, timeout — collapses to a nil Principal. The
// caller cannot distinguish these cases from the result (anti-enumeration);
// the underlying cause is logged at debug level only.
package auth

import (
	"context"
	"log/slog"
	"time"
)

// TokenVerifier resolves an opaque bearer token to a Principal. A nil return
// means "unauthenticated", never an exceptional condition.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) *Principal
}

// JWTVerifier verifies portal-issued HS256 session tokens.
type JWTVerifier struct{}

// Verify parses and validates the token, returning nil on any failure.
func (JWTVerifier) Verify(ctx context.Context, token string) *Principal {
	claims, err := ParseJWT(token)
	if err != nil {
		slog.Debug("jwt verification failed", "error", err)
		return nil
	}

	p := &Principal{
		ID:         claims.UserID,
		Email:      claims.Email,
		Name:       claims.Name,
		Admin:      claims.Admin,
		CustomRole: claims.Role,
		Claims: map[string]any{
			"user_id": claims.UserID,
			"email":   claims.Email,
			"name":    claims.Name,
			"admin":   claims.Admin,
			"role":    claims.Role,
		},
	}
	if p.ID == "" {
		p.ID = claims.Subject
	}
	return p
}

// TimeoutVerifier wraps another verifier with a bounded per-call timeout so a
// slow identity provider can never hang a request. A verification that does
// not complete in time is treated as unauthenticated.
type TimeoutVerifier struct {
	Inner   TokenVerifier
	Timeout time.Duration
}

// Verify runs the inner verifier under a deadline. The inner call runs in its
// own goroutine; if the deadline fires first the result is discarded and nil
// is returned. The goroutine always writes to a buffered channel so it never
// leaks even when the caller has given up.
func (v TimeoutVerifier) Verify(ctx context.Context, token string) *Principal {
	timeout := v.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result := make(chan *Principal, 1)
	go func() {
		result <- v.Inner.Verify(ctx, token)
	}()

	select {
	case p := <-result:
		return p
	case <-ctx.Done():
		slog.Debug("token verification timed out", "timeout", timeout)
		return nil
	}
}

// MultiVerifier tries each verifier in order and returns the first non-nil
// Principal. Used to accept both portal session tokens and identity provider
// ID tokens on the same Authorization header.
type MultiVerifier []TokenVerifier

// Verify returns the first successful verification, or nil if none succeed.
func (m MultiVerifier) Verify(ctx context.Context, token string) *Principal {
	for _, v := range m {
		if p := v.Verify(ctx, token); p != nil {
			return p
		}
	}
	return nil
}
