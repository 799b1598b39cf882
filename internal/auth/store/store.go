package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrUnavailable reports that the backend could not be reached or
	// refused the operation for a transient reason (connection loss, busy).
	ErrUnavailable = errors.New("store: unavailable")

	// ErrTimeout reports that a store call exceeded its deadline.
	ErrTimeout = errors.New("store: timeout")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres,
// memory) implement this. It exposes sub-repositories to keep concerns tidy
// and testable.
//
// Lookups return a (value, found, error) triple: a missing record is a
// normal result, never an error.
type Store interface {
	Repos

	ApplyMigrations() error

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Repos) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Repos is the set of repositories reachable from a Store or a transaction.
type Repos interface {
	Users() Users
	SessionTokens() SessionTokens
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, bool, error)

	// GetUserByUsername matches username exactly. With activeOnly set,
	// disabled accounts are reported as not found.
	GetUserByUsername(ctx context.Context, username string, activeOnly bool) (domain.User, bool, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash replaces the stored digest.
	UpdatePasswordHash(ctx context.Context, userID, hash string) (bool, error)

	// SetActive flips the active flag.
	SetActive(ctx context.Context, userID string, active bool) (bool, error)

	// SetSuperuser flips the superuser flag.
	SetSuperuser(ctx context.Context, userID string, superuser bool) (bool, error)

	// DeleteUser cascades to session_tokens (per schema).
	DeleteUser(ctx context.Context, userID string) (bool, error)
}

type SessionTokens interface {
	// CreateSessionToken stores a new token record.
	// Returns ErrAlreadyExists when the id or fingerprint collides.
	CreateSessionToken(ctx context.Context, t domain.SessionToken) error

	// GetSessionTokenByHash returns the token by its fingerprint.
	GetSessionTokenByHash(ctx context.Context, hash string) (domain.SessionToken, bool, error)

	// UpdateSessionTokenExpiry moves expires_at. False when the record is gone.
	UpdateSessionTokenExpiry(ctx context.Context, id string, expiresAt time.Time) (bool, error)

	// DeleteSessionToken removes one token. False when it was already gone.
	DeleteSessionToken(ctx context.Context, id string) (bool, error)

	// DeleteUserSessionTokens removes every token owned by userID.
	DeleteUserSessionTokens(ctx context.Context, userID string) (int64, error)

	// DeleteExpiredSessionTokens removes tokens with expires_at <= now.
	DeleteExpiredSessionTokens(ctx context.Context, now time.Time) (int64, error)
}
