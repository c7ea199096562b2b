package domain

import "time"

type Client struct {
	ID           string
	Name         string
	SecretHash   string // empty for public (auto-registered) clients
	RedirectURIs []string
	Scopes       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public reports whether the client authenticates without a secret.
func (c *Client) Public() bool {
	return c.SecretHash == ""
}

// AllowsRedirectURI checks an exchange-time redirect_uri against the ones the
// client registered. Clients registered without any URI accept any value.
func (c *Client) AllowsRedirectURI(uri string) bool {
	if len(c.RedirectURIs) == 0 {
		return true
	}
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}
