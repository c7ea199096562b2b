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
	"github.com/aussiebroadwan/toolgate/pkg/jwtx"
	"github.com/aussiebroadwan/toolgate/pkg/slogx"
)

var (
	ErrInvalidClient  = errors.New("invalid_client")
	ErrInvalidGrant   = errors.New("invalid_grant")
	ErrInvalidRequest = errors.New("invalid_request")
	ErrInvalidToken   = errors.New("invalid_token")
)

type TokenService struct {
	Signer    *jwtx.Signer
	Store     store.Store
	Issuer    string
	AccessTTL time.Duration
}

// ExchangeAuthorizationCode implements the OAuth2 authorization_code grant.
//
// The code is resolved before the presenting client is authenticated, so a
// dead code always reads as invalid_grant regardless of what credentials came
// with it. Public (auto-registered) clients carry no secret and skip secret
// verification. Consuming the code and minting the token happen in one
// transaction.
func (s *TokenService) ExchangeAuthorizationCode(
	ctx context.Context,
	clientID, clientSecret, code, redirectURI string,
) (*domain.TokenResponse, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	clientID = strings.TrimSpace(clientID)
	code = strings.TrimSpace(code)
	redirectURI = strings.TrimSpace(redirectURI)
	if code == "" {
		return nil, ErrInvalidGrant
	}

	codeHash := cryptox.FingerprintToken(code)

	var result *domain.TokenResponse

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		authCode, err := tx.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, codeHash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}
		if authCode.Consumed() || authCode.Expired(now) {
			return ErrInvalidGrant
		}

		// The code resolves; now authenticate the client presenting it.
		if clientID == "" {
			return ErrInvalidClient
		}
		client, err := tx.Clients().GetClientByID(ctx, clientID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidClient
			}
			return err
		}
		if !client.Public() {
			if clientSecret == "" || cryptox.VerifySecret(clientSecret, client.SecretHash) != nil {
				l.Info("authorization_code grant client authentication failed", "client_id", clientID)
				return ErrInvalidClient
			}
		}

		if authCode.ClientID != client.ID {
			return ErrInvalidGrant
		}
		if redirectURI != "" && authCode.RedirectURI != redirectURI {
			return ErrInvalidGrant
		}

		// The conditional update is what makes concurrent redemptions of the
		// same code yield exactly one token.
		if err := tx.AuthorizationCodes().ConsumeAuthorizationCode(ctx, authCode.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}

		jti := idx.New().String()
		scope := strings.Join(authCode.Scopes, " ")

		claims := jwtx.NewAccessClaims(client.ID, jti, scope, s.AccessTTL, s.Issuer, now)
		accessToken, err := s.Signer.Sign(claims)
		if err != nil {
			return err
		}

		record := domain.AccessToken{
			ID:        jti,
			ClientID:  client.ID,
			TokenHash: cryptox.FingerprintToken(accessToken),
			Scopes:    authCode.Scopes,
			ExpiresAt: now.Add(s.AccessTTL),
		}
		if err := tx.AccessTokens().CreateAccessToken(ctx, record); err != nil {
			return err
		}

		result = &domain.TokenResponse{
			AccessToken: accessToken,
			TokenType:   "Bearer",
			ExpiresIn:   int64(s.AccessTTL.Seconds()),
			Scope:       scope,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// VerifyAccessToken checks a bearer token's signature and then its stored
// record, so revoked tokens stop working without waiting for expiry.
func (s *TokenService) VerifyAccessToken(ctx context.Context, token string) (string, string, error) {
	claims, err := s.Signer.Verify(token, s.Issuer)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	record, err := s.Store.AccessTokens().GetAccessTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", "", ErrInvalidToken
		}
		return "", "", err
	}
	if !record.Active(time.Now()) {
		return "", "", ErrInvalidToken
	}

	return record.ClientID, claims.Scope, nil
}

// IntrospectionResult is the RFC 7662 view of a token.
type IntrospectionResult struct {
	Active   bool   `json:"active"`
	ClientID string `json:"client_id,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
	Iat      int64  `json:"iat,omitempty"`
}

// IntrospectToken reports whether a token is active. Unknown, expired and
// revoked tokens all come back as {active: false} rather than an error.
func (s *TokenService) IntrospectToken(ctx context.Context, token string) (*IntrospectionResult, error) {
	record, err := s.Store.AccessTokens().GetAccessTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &IntrospectionResult{Active: false}, nil
		}
		return nil, err
	}

	if !record.Active(time.Now()) {
		return &IntrospectionResult{Active: false}, nil
	}

	return &IntrospectionResult{
		Active:   true,
		ClientID: record.ClientID,
		Scope:    strings.Join(record.Scopes, " "),
		Exp:      record.ExpiresAt.Unix(),
		Iat:      record.CreatedAt.Unix(),
	}, nil
}

// RevokeToken revokes an access token by value. Per RFC 7009 revocation of an
// unknown token is not an error.
func (s *TokenService) RevokeToken(ctx context.Context, token string) error {
	return s.Store.AccessTokens().RevokeAccessToken(ctx, cryptox.FingerprintToken(token))
}
