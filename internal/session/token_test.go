package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return tok
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	assert.Equal(t, exp.Unix(), TokenExpiry(signedToken(t, exp)).Unix())
}

func TestTokenExpiryGarbage(t *testing.T) {
	assert.True(t, TokenExpiry("not-a-jwt").IsZero())
	assert.True(t, TokenExpiry("").IsZero())
}

func TestTokenExpired(t *testing.T) {
	assert.True(t, TokenExpired(signedToken(t, time.Now().Add(-time.Minute))))
	assert.False(t, TokenExpired(signedToken(t, time.Now().Add(time.Minute))))
	// No expiry claim means the server decides.
	assert.False(t, TokenExpired(signedToken(t, time.Time{})))
	assert.False(t, TokenExpired("garbage"))
}
