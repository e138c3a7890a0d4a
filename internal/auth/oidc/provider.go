// Package oidc implements identity-provider token verification for the portal.
// It handles OIDC service discovery, ID token verification, and claims
// extraction, and adapts the result to the auth.TokenVerifier contract: any
// verification failure yields a nil Principal.
package oidc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/council-portal/council-portal/internal/auth"
	"github.com/council-portal/council-portal/internal/config"
)

// Provider wraps the OIDC identity provider client.
type Provider struct {
	verifier *oidc.IDTokenVerifier
	config   *oauth2.Config
	provider *oidc.Provider
}

// NewProvider initializes the identity provider client using a background context.
func NewProvider(cfg *config.OIDCConfig) (*Provider, error) {
	return NewProviderWithContext(context.Background(), cfg)
}

// NewProviderWithContext initializes the identity provider client with the
// given context, allowing callers to set deadlines or cancellation for the
// OIDC discovery request.
func NewProviderWithContext(ctx context.Context, cfg *config.OIDCConfig) (*Provider, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("OIDC is not enabled")
	}
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("OIDC issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("OIDC client ID is required")
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: cfg.ClientID,
	})

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       cfg.Scopes,
	}

	return &Provider{
		verifier: verifier,
		config:   oauth2Config,
		provider: provider,
	}, nil
}

// GetAuthURL returns the OAuth2 authorization URL for the login redirect.
func (p *Provider) GetAuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode exchanges the authorization code for tokens.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.config.Exchange(ctx, code)
}

// Verify implements auth.TokenVerifier. It validates the raw ID token against
// the issuer (signature, audience, expiry) and decodes its claims into a
// Principal, passing custom claims (notably admin) through unmodified. Every
// failure collapses to nil; the cause is logged at debug level only so the
// response never reveals why a token was rejected.
func (p *Provider) Verify(ctx context.Context, rawToken string) *auth.Principal {
	idToken, err := p.verifier.Verify(ctx, rawToken)
	if err != nil {
		slog.Debug("id token verification failed", "error", err)
		return nil
	}

	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		slog.Debug("id token claims decode failed", "error", err)
		return nil
	}

	return auth.PrincipalFromClaims(idToken.Subject, claims)
}
