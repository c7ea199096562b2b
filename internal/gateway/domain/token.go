package domain

import "time"

// TokenResponse is what the token endpoint returns, the short-lived access
// token (JWT) plus its metadata.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`      // always "Bearer"
	ExpiresIn   int64  `json:"expires_in"`      // seconds until expiry
	Scope       string `json:"scope,omitempty"` // space-delimited
}

// AccessToken models the stored access token record. Tokens are JWTs on the
// wire but also recorded server-side so revocation and introspection work
// without a distributed blocklist.
type AccessToken struct {
	ID        string
	ClientID  string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	Scopes    []string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Active reports whether the token is usable at the given instant.
func (t *AccessToken) Active(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
