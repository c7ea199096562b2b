package domain

import "time"

// AuthorizationCode represents an OAuth 2.0 authorization code issuance.
// The code itself is never stored, only its fingerprint.
type AuthorizationCode struct {
	ID          string
	ClientID    string
	CodeHash    string
	RedirectURI string
	Scopes      []string
	ExpiresAt   time.Time
	UsedAt      *time.Time
	CreatedAt   time.Time
}

// Expired reports whether the code is past its lifetime at the given instant.
func (c *AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Consumed reports whether the code has already been exchanged.
func (c *AuthorizationCode) Consumed() bool {
	return c.UsedAt != nil
}
