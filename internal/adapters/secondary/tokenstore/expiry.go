// Package tokenstore persists the backend bearer token between runs.
package tokenstore

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL applies to tokens that carry no readable expiry.
const DefaultTTL = 30 * 24 * time.Hour

// Expiry reads the exp claim without verifying the signature; only the
// backend can verify its own tokens.
func Expiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// ttl is how long to keep token from now; zero or less means already expired.
func ttl(token string, now time.Time) time.Duration {
	exp, ok := Expiry(token)
	if !ok {
		return DefaultTTL
	}
	return exp.Sub(now)
}
