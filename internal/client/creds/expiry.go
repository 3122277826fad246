package creds

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expired reports whether the given access token is past its embedded
// expiry claim at the given instant.
//
// The client holds no signing key, so the token is parsed without
// signature verification; only the exp claim matters here. Any token that
// cannot be decoded, or that carries no exp claim, is treated as expired
// (fail-closed): a malformed token must never be mistaken for a valid one.
func Expired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}
