package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the default lifetime for access tokens.
// The gateway hands these to tool clients, so an hour keeps re-auth rare
// without letting stolen tokens live forever.
const DefaultAccessTokenTTL = 60 * time.Minute

var (
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrIssuer      = errors.New("jwtx: unexpected issuer")
	ErrSignature   = errors.New("jwtx: signature verification failed")
)

// Claims are access-token claims used across the gateway. The subject is a
// client identifier; there is no resource-owner axis in this service.
type Claims struct {
	jwt.RegisteredClaims

	// Scope is the space-delimited scope string granted at issuance.
	Scope string `json:"scope,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for a client-held token.
// The jti is supplied by the caller so the issued token can also be recorded
// in the token store under the same identifier.
func NewAccessClaims(
	clientID, jti, scope string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   clientID,
			Audience:  jwt.ClaimStrings{clientID},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Scope: scope,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't before nbf.
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}

	return nil
}
