package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim from a bearer token without verifying
// the signature (verification is the server's job; the client only needs
// the timestamp). Returns the zero time when the token has no usable
// expiry.
func TokenExpiry(token string) time.Time {
	parser := jwt.NewParser()
	var claims jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// TokenExpired reports whether the token carries an expiry in the past.
// Tokens without an expiry are treated as live; the server's 401 is the
// authority either way.
func TokenExpired(token string) bool {
	exp := TokenExpiry(token)
	return !exp.IsZero() && exp.Before(time.Now())
}
