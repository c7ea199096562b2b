package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiscoveryDocument(t *testing.T) {
	srv := newTestServer(t, false)

	resp, err := http.Get(srv.URL + "/.well-known/oauth-authorization-server")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var metadata map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&metadata))

	require.Equal(t, testIssuer, metadata["issuer"])
	require.Equal(t, testIssuer+"/register", metadata["registration_endpoint"])
	require.Equal(t, testIssuer+"/authorize", metadata["authorization_endpoint"])
	require.Equal(t, testIssuer+"/token", metadata["token_endpoint"])
	require.Equal(t, testIssuer+"/revoke", metadata["revocation_endpoint"])
	require.Equal(t, testIssuer+"/introspect", metadata["introspection_endpoint"])
	require.Equal(t, []any{"code"}, metadata["response_types_supported"])
	require.Equal(t, []any{"authorization_code"}, metadata["grant_types_supported"])
}

func TestOAuth2Flow(t *testing.T) {
	srv := newTestServer(t, false)
	redirectURI := "https://app.example/callback"

	// Register a confidential client.
	resp, err := http.Post(srv.URL+"/register", "application/json", strings.NewReader(
		`{"client_name":"e2e app","redirect_uris":["https://app.example/callback"],"scope":"tools:invoke"}`,
	))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var reg struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		RedirectURIs []string `json:"redirect_uris"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reg))
	require.NotEmpty(t, reg.ClientID)
	require.NotEmpty(t, reg.ClientSecret)
	require.Equal(t, []string{redirectURI}, reg.RedirectURIs)

	// Authorize: the redirect carries the code and echoes our state.
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", reg.ClientID)
	params.Set("redirect_uri", redirectURI)
	params.Set("state", "opaque-state")

	authResp, err := noRedirectClient().Get(srv.URL + "/authorize?" + params.Encode())
	require.NoError(t, err)
	defer authResp.Body.Close()
	require.Equal(t, http.StatusFound, authResp.StatusCode)

	location, err := url.Parse(authResp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/callback", location.Path)
	require.Equal(t, "opaque-state", location.Query().Get("state"))

	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	// Exchange the code for a token.
	tokenResp := exchangeCode(t, srv, reg.ClientID, reg.ClientSecret, code, redirectURI)
	defer tokenResp.Body.Close()
	require.Equal(t, http.StatusOK, tokenResp.StatusCode)

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
		Scope       string `json:"scope"`
	}
	require.NoError(t, json.NewDecoder(tokenResp.Body).Decode(&token))
	require.NotEmpty(t, token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, int64(3600), token.ExpiresIn)
	require.Equal(t, "tools:invoke", token.Scope)

	t.Run("code reuse is invalid_grant", func(t *testing.T) {
		resp := exchangeCode(t, srv, reg.ClientID, reg.ClientSecret, code, redirectURI)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_grant", oauthError(t, resp))
	})

	t.Run("introspection reports the token active", func(t *testing.T) {
		result := introspect(t, srv, token.AccessToken)
		require.True(t, result.Active)
		require.Equal(t, reg.ClientID, result.ClientID)
		require.Equal(t, "tools:invoke", result.Scope)
	})

	t.Run("revocation flips introspection to inactive", func(t *testing.T) {
		form := url.Values{}
		form.Set("token", token.AccessToken)

		resp, err := http.Post(srv.URL+"/revoke", "application/x-www-form-urlencoded",
			strings.NewReader(form.Encode()))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		result := introspect(t, srv, token.AccessToken)
		require.False(t, result.Active)
	})
}

func TestAutoRegisteredClientFlow(t *testing.T) {
	srv := newTestServer(t, false)
	redirectURI := "https://cli.example/callback"

	// An unknown client_id at /authorize becomes a public client. The
	// request carries no response_type; the only supported one is assumed.
	params := url.Values{}
	params.Set("client_id", "ad-hoc-client")
	params.Set("redirect_uri", redirectURI)
	params.Set("state", "s1")

	authResp, err := noRedirectClient().Get(srv.URL + "/authorize?" + params.Encode())
	require.NoError(t, err)
	defer authResp.Body.Close()
	require.Equal(t, http.StatusFound, authResp.StatusCode)

	location, err := url.Parse(authResp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "s1", location.Query().Get("state"))

	code := location.Query().Get("code")
	require.NotEmpty(t, code)

	resp := exchangeCode(t, srv, "ad-hoc-client", "", code, redirectURI)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Scope       string `json:"scope"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
	require.NotEmpty(t, token.AccessToken)
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, "tools:invoke", token.Scope)
}

func TestAuthorizeErrors(t *testing.T) {
	srv := newTestServer(t, false)

	t.Run("missing client_id", func(t *testing.T) {
		resp, err := noRedirectClient().Get(srv.URL + "/authorize?response_type=code")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_request", oauthError(t, resp))
	})

	t.Run("unsupported response_type", func(t *testing.T) {
		resp, err := noRedirectClient().Get(srv.URL + "/authorize?response_type=token&client_id=x&redirect_uri=https%3A%2F%2Fapp.example%2Fcb")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_request", oauthError(t, resp))
	})
}

func TestTokenEndpointErrors(t *testing.T) {
	srv := newTestServer(t, false)

	t.Run("unsupported grant_type", func(t *testing.T) {
		form := url.Values{}
		form.Set("grant_type", "client_credentials")

		resp, err := http.Post(srv.URL+"/token", "application/x-www-form-urlencoded",
			strings.NewReader(form.Encode()))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_grant", oauthError(t, resp))
	})

	t.Run("wrong client secret", func(t *testing.T) {
		regResp, err := http.Post(srv.URL+"/register", "application/json", strings.NewReader(
			`{"client_name":"strict app","redirect_uris":["https://app.example/callback"]}`,
		))
		require.NoError(t, err)
		defer regResp.Body.Close()

		var reg struct {
			ClientID string `json:"client_id"`
		}
		require.NoError(t, json.NewDecoder(regResp.Body).Decode(&reg))

		code := obtainCode(t, srv, reg.ClientID, "https://app.example/callback", "")

		resp := exchangeCode(t, srv, reg.ClientID, "not-the-secret", code, "https://app.example/callback")
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_client", oauthError(t, resp))
	})

	t.Run("wrong content type", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/token", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

type introspectionResponse struct {
	Active   bool   `json:"active"`
	ClientID string `json:"client_id"`
	Scope    string `json:"scope"`
}

func introspect(t *testing.T, srv *httptest.Server, token string) introspectionResponse {
	t.Helper()

	form := url.Values{}
	form.Set("token", token)

	resp, err := http.Post(srv.URL+"/introspect", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result introspectionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func oauthError(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}
