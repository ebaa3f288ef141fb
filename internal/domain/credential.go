package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the subset of an issued credential the harness inspects.
type TokenClaims struct {
	Subject   string
	Username  string
	ExpiresAt time.Time
}

// InspectToken reads the claims of a JWT credential without verifying its
// signature. Opaque tokens report false.
func InspectToken(token string) (TokenClaims, bool) {
	if token == "" {
		return TokenClaims{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, false
	}

	var out TokenClaims
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if name, ok := claims["preferred_username"].(string); ok {
		out.Username = name
	}
	return out, true
}

// AbbrevToken shortens a credential for display: the first 30 characters
// followed by "...".
func AbbrevToken(token string) string {
	const keep = 30
	if len(token) <= keep {
		return token + "..."
	}
	return token[:keep] + "..."
}
