package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/domain"
	"github.com/aussiebroadwan/toolgate/internal/gateway/store"
)

type authorizationCodesRepo struct {
	q dbtx
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO authorization_codes (id, client_id, code_hash, redirect_uri, scopes, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		code.ID,
		code.ClientID,
		code.CodeHash,
		code.RedirectURI,
		joinFields(code.Scopes),
		code.ExpiresAt.UTC(),
		time.Now().UTC(),
	)
	return err
}

func (r *authorizationCodesRepo) GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, client_id, code_hash, redirect_uri, scopes, expires_at, used_at, created_at
		FROM authorization_codes
		WHERE code_hash = ?`,
		hash,
	)

	var (
		code   domain.AuthorizationCode
		scopes string
		usedAt sql.NullTime
	)
	err := row.Scan(&code.ID, &code.ClientID, &code.CodeHash, &code.RedirectURI,
		&scopes, &code.ExpiresAt, &usedAt, &code.CreatedAt)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	code.Scopes = splitAndFilter(scopes)
	code.UsedAt = mapNullTimePtr(usedAt)
	return code, nil
}

// ConsumeAuthorizationCode is a single conditional UPDATE so that of two
// concurrent redemptions exactly one succeeds.
func (r *authorizationCodesRepo) ConsumeAuthorizationCode(ctx context.Context, id string, now time.Time) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE authorization_codes
		SET used_at = ?
		WHERE id = ? AND used_at IS NULL AND expires_at > ?`,
		now.UTC(),
		id,
		now.UTC(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `
		DELETE FROM authorization_codes
		WHERE expires_at <= ?`,
		time.Now().UTC(),
	)
	return err
}
