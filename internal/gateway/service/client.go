package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/toolgate/internal/gateway/domain"
	"github.com/aussiebroadwan/toolgate/internal/gateway/store"
	"github.com/aussiebroadwan/toolgate/pkg/cryptox"
	"github.com/aussiebroadwan/toolgate/pkg/idx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// DefaultScopes is granted to clients that register without asking for any
// particular scope.
var DefaultScopes = []string{"tools:invoke"}

type ClientService struct {
	Store store.Store
}

// RegisterClient creates a new confidential OAuth2 client with a generated
// secret. The plaintext secret is returned exactly once; only its Argon2id
// hash is stored.
func (s *ClientService) RegisterClient(
	ctx context.Context,
	name string,
	redirectURIs []string,
	scopes []string,
) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate client secret", "error", err)
		return domain.Client{}, "", err
	}

	secretHash, err := cryptox.HashSecret(secret)
	if err != nil {
		l.Error("failed to hash client secret", "error", err)
		return domain.Client{}, "", err
	}

	client := domain.Client{
		ID:           idx.New().String(),
		Name:         name,
		SecretHash:   secretHash,
		RedirectURIs: redirectURIs,
		Scopes:       scopes,
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		l.Error("failed to create client", "error", err)
		return domain.Client{}, "", err
	}

	l.Info("client registered", "client_id", client.ID, "name", name)
	return client, secret, nil
}

// AutoRegisterClient creates a public client under a caller-chosen id. This
// backs the authorize endpoint's tolerance for unknown client ids: the first
// authorization request implicitly registers the client with the redirect URI
// it arrived with.
func (s *ClientService) AutoRegisterClient(
	ctx context.Context,
	clientID, redirectURI string,
) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	client := domain.Client{
		ID:           clientID,
		Name:         clientID,
		RedirectURIs: []string{redirectURI},
		Scopes:       DefaultScopes,
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		// A concurrent authorize request may have won the insert.
		existing, getErr := s.Store.Clients().GetClientByID(ctx, clientID)
		if getErr == nil {
			return existing, nil
		}
		l.Error("failed to auto-register client", "error", err, "client_id", clientID)
		return domain.Client{}, err
	}

	l.Info("client auto-registered", "client_id", clientID, "redirect_uri", redirectURI)
	return client, nil
}

// LookupClient fetches a client by id.
func (s *ClientService) LookupClient(ctx context.Context, id string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}
	return client, nil
}
