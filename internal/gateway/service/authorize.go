package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/domain"
	"github.com/aussiebroadwan/toolgate/internal/gateway/store"
	"github.com/aussiebroadwan/toolgate/pkg/cryptox"
	"github.com/aussiebroadwan/toolgate/pkg/idx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

// AuthorizeService encapsulates the OAuth2 authorization-code issuance flow.
type AuthorizeService struct {
	Store   store.Store
	Clients *ClientService
	CodeTTL time.Duration

	// AllowAutoRegister lets an unknown client_id implicitly register itself
	// as a public client on its first authorization request.
	AllowAutoRegister bool
}

// AuthorizeRequest captures the inputs of an authorization request.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        []string
	State        string
}

// AuthorizeCodeResponse contains the authorization code and redirect
// information used to build the 302 back to the client.
type AuthorizeCodeResponse struct {
	Code        string
	RedirectURI string
	State       string
}

// IssueAuthorizationCode implements the OAuth2 authorization code flow per
// RFC 6749 section 4.1, without an interactive login step. The caller at the
// authorize endpoint is trusted the way a local tool host is: possession of
// the redirect URI stands in for user consent.
//
// Validation rules:
//
//   - response_type other than "code" -> ErrInvalidRequest. An absent
//     response_type is treated as "code"; only one response type exists.
//   - missing client_id -> ErrInvalidRequest.
//   - unknown client_id: auto-registered as a public client when
//     AllowAutoRegister is set, otherwise ErrInvalidClient.
//   - a supplied redirect_uri must be in the client's registered set;
//     an absent one falls back to the client's first registered URI.
//     No usable URI -> ErrInvalidRequest.
//
// Codes are single-use, expire after CodeTTL (default 10 minutes), and only
// their fingerprint is stored.
func (s *AuthorizeService) IssueAuthorizationCode(ctx context.Context, req AuthorizeRequest) (*AuthorizeCodeResponse, error) {
	log := slogx.FromContext(ctx)

	responseType := strings.TrimSpace(req.ResponseType)
	if responseType != "" && !strings.EqualFold(responseType, "code") {
		return nil, ErrInvalidRequest
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		return nil, ErrInvalidRequest
	}

	redirectURI := strings.TrimSpace(req.RedirectURI)

	client, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		if !s.AllowAutoRegister || redirectURI == "" {
			return nil, ErrInvalidClient
		}
		client, err = s.Clients.AutoRegisterClient(ctx, clientID, redirectURI)
		if err != nil {
			return nil, err
		}
	}

	// Resolve the redirect URI against the client's registered set.
	switch {
	case redirectURI == "" && len(client.RedirectURIs) > 0:
		redirectURI = client.RedirectURIs[0]
	case redirectURI == "":
		return nil, ErrInvalidRequest
	case !client.AllowsRedirectURI(redirectURI):
		log.Warn("authorize: redirect_uri not registered", "client_id", client.ID)
		return nil, ErrInvalidRequest
	}

	// A request without an explicit scope inherits the client's granted set.
	scopes := req.Scope
	if len(scopes) == 0 {
		scopes = client.Scopes
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ttl := s.CodeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	record := domain.AuthorizationCode{
		ID:          idx.New().String(),
		ClientID:    client.ID,
		CodeHash:    cryptox.FingerprintToken(code),
		RedirectURI: redirectURI,
		Scopes:      scopes,
		ExpiresAt:   now.Add(ttl),
		CreatedAt:   now,
	}

	if err := s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, record); err != nil {
		return nil, err
	}

	return &AuthorizeCodeResponse{
		Code:        code,
		RedirectURI: redirectURI,
		State:       req.State,
	}, nil
}
