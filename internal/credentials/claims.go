package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields the backend puts in its access tokens.
type Claims struct {
	Subject   string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token does not expire
}

type tokenClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Inspect decodes the token's claims without verifying its signature.
// Only the backend holds the signing key; this is for display and diagnostics.
func Inspect(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrNoToken
	}

	var tc tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &tc); err != nil {
		return Claims{}, fmt.Errorf("token is not a readable JWT: %w", err)
	}

	c := Claims{
		Subject: tc.Subject,
		Role:    tc.Role,
	}
	if tc.IssuedAt != nil {
		c.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		c.ExpiresAt = tc.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether the claims carry an expiry before now.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Remaining is the time until expiry; zero for non-expiring or expired tokens.
func (c Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() || now.After(c.ExpiresAt) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

// IsMalformed reports whether err came from Inspect failing to parse a token.
func IsMalformed(err error) bool {
	return errors.Is(err, jwt.ErrTokenMalformed)
}
