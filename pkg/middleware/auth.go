package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey = "claims"
	OwnerKey  = "owner"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		// Extract claims
		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		var owner string
		if p, ok := idToken.(Principal); ok {
			owner = p.Owner()
		} else {
			owner = OwnerFromClaims(claims)
		}
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrNoOwner.Error()})
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(OwnerKey, owner)
		c.Next()
	}
}

// OwnerFromClaims picks the caller id: "sub", then "user_id", then "admin.id"
// as issued by older admin tokens.
func OwnerFromClaims(claims map[string]interface{}) string {
	for _, k := range []string{"sub", "user_id"} {
		if s := claimString(claims[k]); s != "" {
			return s
		}
	}
	if admin, ok := claims["admin"].(map[string]interface{}); ok {
		return claimString(admin["id"])
	}
	return ""
}

func claimString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	}
	return ""
}

// Owner returns the authenticated caller set by AuthMiddleware.
func Owner(c *gin.Context) string {
	return c.GetString(OwnerKey)
}

// Unavailable rejects requests to routes that need a verifier when none is configured.
func Unavailable(reason string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": reason})
	}
}
