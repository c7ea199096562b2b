package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/toolgate/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and to stop callers from accidentally nesting transactions.
type Store interface {
	Clients() Clients
	AuthorizationCodes() AuthorizationCodes
	AccessTokens() AccessTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// CreateClient inserts a new client (id is ULID; secret_hash is empty for
	// public clients).
	CreateClient(ctx context.Context, c domain.Client) error

	// GetClientByID fetches a client for authentication and issuance checks.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by creation date (newest first).
	ListClients(ctx context.Context) ([]domain.Client, error)
}

type AuthorizationCodes interface {
	// CreateAuthorizationCode stores a freshly minted authorization code.
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// GetAuthorizationCodeByHash fetches a code by its hashed value when redeeming.
	GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	// ConsumeAuthorizationCode marks a code as used, but only if it is still
	// unused and unexpired at the given instant. Returns ErrNotFound when the
	// code was already consumed or has expired, which makes concurrent
	// redemption attempts lose cleanly.
	ConsumeAuthorizationCode(ctx context.Context, id string, now time.Time) error

	// DeleteExpiredAuthorizationCodes removes any codes that are no longer valid.
	DeleteExpiredAuthorizationCodes(ctx context.Context) error
}

type AccessTokens interface {
	// CreateAccessToken stores a new access token record.
	CreateAccessToken(ctx context.Context, t domain.AccessToken) error

	// GetAccessTokenByHash returns the token record by its fingerprint.
	GetAccessTokenByHash(ctx context.Context, hash string) (domain.AccessToken, error)

	// RevokeAccessToken flips revoked=1 for the token with the given fingerprint.
	RevokeAccessToken(ctx context.Context, hash string) error

	// DeleteExpiredAccessTokens is housekeeping for long-dead records.
	DeleteExpiredAccessTokens(ctx context.Context) error
}
