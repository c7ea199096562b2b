package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/domain"
	"github.com/aussiebroadwan/toolgate/internal/gateway/store/drivers/sqlite"
	"github.com/aussiebroadwan/toolgate/pkg/cryptox"
	"github.com/aussiebroadwan/toolgate/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func TestIssueAuthorizationCode(t *testing.T) {
	ctx := context.Background()

	newService := func(t *testing.T, autoRegister bool) *AuthorizeService {
		st := newTestStore(t)
		return &AuthorizeService{
			Store:             st,
			Clients:           &ClientService{Store: st},
			CodeTTL:           10 * time.Minute,
			AllowAutoRegister: autoRegister,
		}
	}

	t.Run("rejects missing client_id", func(t *testing.T) {
		svc := newService(t, true)
		_, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "code",
			RedirectURI:  "https://app.example/callback",
		})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("treats an absent response_type as code", func(t *testing.T) {
		svc := newService(t, true)

		resp, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ClientID:    "implicit-type",
			RedirectURI: "https://app.example/callback",
			State:       "s1",
		})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Code)
		require.Equal(t, "s1", resp.State)
	})

	t.Run("rejects unsupported response_type", func(t *testing.T) {
		svc := newService(t, true)
		_, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "token",
			ClientID:     "some-client",
			RedirectURI:  "https://app.example/callback",
		})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("auto-registers unknown clients", func(t *testing.T) {
		svc := newService(t, true)

		resp, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "code",
			ClientID:     "fresh-client",
			RedirectURI:  "https://app.example/callback",
			State:        "opaque-state",
		})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Code)
		require.Equal(t, "https://app.example/callback", resp.RedirectURI)
		require.Equal(t, "opaque-state", resp.State)

		client, err := svc.Store.Clients().GetClientByID(ctx, "fresh-client")
		require.NoError(t, err)
		require.True(t, client.Public())
		require.Equal(t, []string{"https://app.example/callback"}, client.RedirectURIs)
		require.Equal(t, DefaultScopes, client.Scopes)
	})

	t.Run("rejects unknown clients in strict mode", func(t *testing.T) {
		svc := newService(t, false)
		_, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "code",
			ClientID:     "fresh-client",
			RedirectURI:  "https://app.example/callback",
		})
		require.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("rejects unregistered redirect_uri", func(t *testing.T) {
		svc := newService(t, true)

		client := domain.Client{
			ID:           idx.New().String(),
			Name:         "registered",
			RedirectURIs: []string{"https://app.example/callback"},
		}
		require.NoError(t, svc.Store.Clients().CreateClient(ctx, client))

		_, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "code",
			ClientID:     client.ID,
			RedirectURI:  "https://evil.example/callback",
		})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("falls back to first registered redirect_uri", func(t *testing.T) {
		svc := newService(t, true)

		client := domain.Client{
			ID:           idx.New().String(),
			Name:         "registered",
			RedirectURIs: []string{"https://app.example/callback", "https://app.example/alt"},
		}
		require.NoError(t, svc.Store.Clients().CreateClient(ctx, client))

		resp, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "code",
			ClientID:     client.ID,
		})
		require.NoError(t, err)
		require.Equal(t, "https://app.example/callback", resp.RedirectURI)
	})

	t.Run("inherits the client's scope when none is requested", func(t *testing.T) {
		svc := newService(t, true)

		client := domain.Client{
			ID:           idx.New().String(),
			Name:         "scoped",
			RedirectURIs: []string{"https://app.example/callback"},
			Scopes:       []string{"tools:invoke", "tools:list"},
		}
		require.NoError(t, svc.Store.Clients().CreateClient(ctx, client))

		resp, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "code",
			ClientID:     client.ID,
		})
		require.NoError(t, err)

		record, err := svc.Store.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(resp.Code))
		require.NoError(t, err)
		require.Equal(t, client.Scopes, record.Scopes)
	})

	t.Run("an explicit scope overrides the client default", func(t *testing.T) {
		svc := newService(t, true)

		client := domain.Client{
			ID:           idx.New().String(),
			Name:         "scoped",
			RedirectURIs: []string{"https://app.example/callback"},
			Scopes:       []string{"tools:invoke", "tools:list"},
		}
		require.NoError(t, svc.Store.Clients().CreateClient(ctx, client))

		resp, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "code",
			ClientID:     client.ID,
			Scope:        []string{"tools:invoke"},
		})
		require.NoError(t, err)

		record, err := svc.Store.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(resp.Code))
		require.NoError(t, err)
		require.Equal(t, []string{"tools:invoke"}, record.Scopes)
	})

	t.Run("stores only the code fingerprint", func(t *testing.T) {
		svc := newService(t, true)

		resp, err := svc.IssueAuthorizationCode(ctx, AuthorizeRequest{
			ResponseType: "code",
			ClientID:     "fingerprint-client",
			RedirectURI:  "https://app.example/callback",
		})
		require.NoError(t, err)

		record, err := svc.Store.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(resp.Code))
		require.NoError(t, err)
		require.NotEqual(t, resp.Code, record.CodeHash)
		require.Nil(t, record.UsedAt)
	})
}
