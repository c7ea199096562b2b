package http

import (
	"net/http"

	"github.com/aussiebroadwan/toolgate/pkg/httpx"
)

// DiscoveryHandler serves GET /.well-known/oauth-authorization-server, the
// RFC 8414 authorization server metadata document. Clients use it to locate
// the registration, authorization, and token endpoints.
func DiscoveryHandler(issuer string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metadata := map[string]any{
			"issuer":                                issuer,
			"registration_endpoint":                 issuer + "/register",
			"authorization_endpoint":                issuer + "/authorize",
			"token_endpoint":                        issuer + "/token",
			"revocation_endpoint":                   issuer + "/revoke",
			"introspection_endpoint":                issuer + "/introspect",
			"response_types_supported":              []string{"code"},
			"grant_types_supported":                 []string{"authorization_code"},
			"token_endpoint_auth_methods_supported": []string{"client_secret_post", "none"},
		}
		httpx.WriteJSON(w, http.StatusOK, metadata)
	}
}
