package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/mcp"
	"github.com/aussiebroadwan/toolgate/internal/gateway/service"
	"github.com/aussiebroadwan/toolgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/toolgate/pkg/jwtx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "http://gateway.test"

func newTestServer(t *testing.T, requireAuth bool) *httptest.Server {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	signer, err := jwtx.NewEphemeralSigner("test-key")
	require.NoError(t, err)

	logger := slogx.New(slogx.Config{
		Service: "toolgate-test",
		Version: "test",
		Env:     "test",
		Level:   "error",
		Format:  "text",
	})

	tokenService := &service.TokenService{
		Signer:    signer,
		Store:     st,
		Issuer:    testIssuer,
		AccessTTL: time.Hour,
	}
	clientService := &service.ClientService{Store: st}
	authorizeService := &service.AuthorizeService{
		Store:             st,
		Clients:           clientService,
		CodeTTL:           10 * time.Minute,
		AllowAutoRegister: true,
	}

	backend := mcp.NewStaticBackend()
	backend.Register(mcp.Tool{
		Name:        "echo",
		Description: "echoes its message argument",
		InputSchema: map[string]any{"type": "object"},
	}, func(ctx context.Context, args map[string]any) (*mcp.ToolResult, error) {
		message, _ := args["message"].(string)
		return mcp.TextResult(message), nil
	})

	router := NewRouter(testIssuer, "test", st, logger)
	router.TokenService = tokenService
	router.ClientService = clientService
	router.AuthorizeService = authorizeService
	router.Dispatcher = mcp.NewDispatcher(backend, mcp.ServerInfo{Name: "toolgate-test", Version: "test"}, 5*time.Second)
	router.Sessions = mcp.NewSessionRegistry(30 * time.Minute)
	router.RequireAuth = requireAuth
	router.Heartbeat = 15 * time.Second
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// noRedirectClient returns the 302 itself instead of following it off-host.
func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// obtainCode drives GET /authorize and extracts the code from the redirect.
func obtainCode(t *testing.T, srv *httptest.Server, clientID, redirectURI, state string) string {
	t.Helper()

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", clientID)
	if redirectURI != "" {
		params.Set("redirect_uri", redirectURI)
	}
	if state != "" {
		params.Set("state", state)
	}

	resp, err := noRedirectClient().Get(srv.URL + "/authorize?" + params.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.NotEmpty(t, location.Query().Get("code"))
	return location.Query().Get("code")
}

// exchangeCode drives POST /token and returns the decoded response.
func exchangeCode(t *testing.T, srv *httptest.Server, clientID, secret, code, redirectURI string) *http.Response {
	t.Helper()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", clientID)
	form.Set("code", code)
	if secret != "" {
		form.Set("client_secret", secret)
	}
	if redirectURI != "" {
		form.Set("redirect_uri", redirectURI)
	}

	resp, err := http.Post(srv.URL+"/token", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	return resp
}
