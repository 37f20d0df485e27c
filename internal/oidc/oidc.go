package oidc

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gogotex/pdfstore/pkg/middleware"
)

// KeycloakIssuer returns the issuer URL of a Keycloak realm. An empty realm
// leaves baseURL untouched.
func KeycloakIssuer(baseURL, realm string) string {
	if realm == "" {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/realms/" + realm
}

// Verifier checks ID tokens against a discovered OIDC provider and resolves
// the document owner from the verified claims.
type Verifier struct {
	issuer   string
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the provider at issuer and accepts tokens issued for clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{issuer: issuer, verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// newStaticVerifier skips discovery and checks signatures against a fixed key set.
func newStaticVerifier(issuer, clientID string, keys oidc.KeySet) *Verifier {
	return &Verifier{issuer: issuer, verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID})}
}

func (v *Verifier) Issuer() string { return v.issuer }

// Verify checks signature, issuer, audience and expiry, then requires an owner
// claim (sub, user_id or admin.id). The returned token is a *middleware.Identity.
func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	id, err := middleware.NewIdentity(claims)
	if err != nil {
		return nil, err
	}
	return id, nil
}
