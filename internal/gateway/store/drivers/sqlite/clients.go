package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/domain"
)

type clientsRepo struct {
	q dbtx
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO clients (id, name, secret_hash, redirect_uris, scopes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Name,
		mapStringNull(c.SecretHash),
		joinFields(c.RedirectURIs),
		joinFields(c.Scopes),
		now,
		now,
	)
	return err
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, name, secret_hash, redirect_uris, scopes, created_at, updated_at
		FROM clients
		WHERE id = ?`,
		id,
	)
	return scanClient(row)
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, secret_hash, redirect_uris, scopes, created_at, updated_at
		FROM clients
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (domain.Client, error) {
	var (
		c            domain.Client
		secretHash   sql.NullString
		redirectURIs string
		scopes       string
	)
	err := row.Scan(&c.ID, &c.Name, &secretHash, &redirectURIs, &scopes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	c.SecretHash = mapNullString(secretHash)
	c.RedirectURIs = splitAndFilter(redirectURIs)
	c.Scopes = splitAndFilter(scopes)
	return c, nil
}
