package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// TokenVerifier checks a bearer token and returns the client it belongs to.
// Implementations typically verify the token signature and then consult
// server-side state so revoked tokens stop working immediately.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (clientID string, scope string, err error)
}

type authnCtxKey struct{}

// AuthnInfo carries the verified identity of the caller.
type AuthnInfo struct {
	ClientID string
	Scope    string
}

// AuthnFromContext returns the identity attached by AuthnMiddleware, if any.
func AuthnFromContext(ctx context.Context) (AuthnInfo, bool) {
	info, ok := ctx.Value(authnCtxKey{}).(AuthnInfo)
	return info, ok
}

// AuthnMiddleware enforces bearer authentication on the wrapped handler.
// When required is false the middleware still attaches identity for valid
// tokens but lets anonymous requests through untouched.
func AuthnMiddleware(verifier TokenVerifier, required bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if required {
					writeBearerError(w, http.StatusUnauthorized, "", "")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			clientID, scope, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				writeBearerError(w, http.StatusUnauthorized, ErrorCodeInvalidToken,
					"the access token is invalid, expired or revoked")
				return
			}

			ctx := context.WithValue(r.Context(), authnCtxKey{}, AuthnInfo{
				ClientID: clientID,
				Scope:    scope,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// writeBearerError writes an RFC 6750 WWW-Authenticate challenge. When no
// token was presented at all the challenge carries no error attributes.
func writeBearerError(w http.ResponseWriter, status int, code, description string) {
	challenge := "Bearer"
	if code != "" {
		challenge = fmt.Sprintf("Bearer error=%q, error_description=%q", code, description)
	}
	w.Header().Set("WWW-Authenticate", challenge)
	if code == "" {
		w.WriteHeader(status)
		return
	}
	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": description,
	})
}
