package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gogotex/pdfstore/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "https://auth.example.com/realms/pdfstore"
	testClient = "pdfstore-api"
)

func signedIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	base := jwt.MapClaims{
		"iss": testIssuer,
		"aud": testClient,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Minute).Unix(),
	}
	for k, v := range claims {
		base[k] = v
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, base).SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestVerifier_ResolvesOwner(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newStaticVerifier(testIssuer, testClient, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}})

	tok, err := v.Verify(context.Background(), signedIDToken(t, key, jwt.MapClaims{"sub": "kc-user-1"}))
	require.NoError(t, err)
	require.Equal(t, "kc-user-1", tok.(middleware.Principal).Owner())

	var claims map[string]interface{}
	require.NoError(t, tok.Claims(&claims))
	require.Equal(t, testIssuer, claims["iss"])
}

func TestVerifier_RejectsTokenWithoutOwner(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newStaticVerifier(testIssuer, testClient, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}})

	_, err = v.Verify(context.Background(), signedIDToken(t, key, jwt.MapClaims{"email": "x@example.com"}))
	require.ErrorIs(t, err, middleware.ErrNoOwner)
}

func TestVerifier_RejectsForeignSignatureAndAudience(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newStaticVerifier(testIssuer, testClient, &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}})

	_, err = v.Verify(context.Background(), signedIDToken(t, other, jwt.MapClaims{"sub": "u"}))
	require.Error(t, err)

	_, err = v.Verify(context.Background(), signedIDToken(t, key, jwt.MapClaims{"sub": "u", "aud": "someone-else"}))
	require.Error(t, err)
}

func TestKeycloakIssuer(t *testing.T) {
	require.Equal(t, testIssuer, KeycloakIssuer("https://auth.example.com/", "pdfstore"))
	require.Equal(t, "https://auth.example.com", KeycloakIssuer("https://auth.example.com", ""))
}
