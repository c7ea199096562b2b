package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/domain"
)

type accessTokensRepo struct {
	q dbtx
}

func (r *accessTokensRepo) CreateAccessToken(ctx context.Context, t domain.AccessToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO access_tokens (id, client_id, token_hash, scopes, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		t.ID,
		t.ClientID,
		t.TokenHash,
		joinFields(t.Scopes),
		t.ExpiresAt.UTC(),
		time.Now().UTC(),
	)
	return err
}

func (r *accessTokensRepo) GetAccessTokenByHash(ctx context.Context, hash string) (domain.AccessToken, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, client_id, token_hash, scopes, expires_at, revoked, created_at
		FROM access_tokens
		WHERE token_hash = ?`,
		hash,
	)

	var (
		t      domain.AccessToken
		scopes string
	)
	err := row.Scan(&t.ID, &t.ClientID, &t.TokenHash, &scopes, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}
	t.Scopes = splitAndFilter(scopes)
	return t, nil
}

func (r *accessTokensRepo) RevokeAccessToken(ctx context.Context, hash string) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE access_tokens
		SET revoked = 1
		WHERE token_hash = ?`,
		hash,
	)
	return err
}

func (r *accessTokensRepo) DeleteExpiredAccessTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM access_tokens
		WHERE expires_at <= ?`,
		time.Now().UTC(),
	)
	return err
}
