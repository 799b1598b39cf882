package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/sqlite/gen"
	"github.com/samber/oops"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// DSN builds a connection string for a database file at path with foreign
// keys enforced, a busy timeout, WAL journaling and immediate write
// transactions so concurrent writers queue instead of deadlocking.
func DSN(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate&_time_format=sqlite",
		path,
	)
}

// NewStore opens dsn. A bare path (no "file:" prefix, no query) is expanded
// with DSN.
func NewStore(dsn string) (*Store, error) {
	if !strings.HasPrefix(dsn, "file:") && !strings.Contains(dsn, "?") {
		dsn = DSN(dsn)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("driver", "sqlite").Wrap(err)
	}

	// Enforce FKs even when the caller supplied their own DSN.
	if _, err := db.ExecContext(context.Background(), `PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, oops.Code("STORE_OPEN_FAILED").With("driver", "sqlite").Wrap(mapError(err))
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.db.PingContext(ctx))
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Repos) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}

	// Ensure rollback is called if we panic or return early with error
	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(newTx(tx)); err != nil {
		return err // rollback happens in defer
	}

	return mapError(tx.Commit())
}

func (s *Store) Users() store.Users                 { return &usersRepo{q: s.q} }
func (s *Store) SessionTokens() store.SessionTokens { return &sessionTokensRepo{q: s.q} }

// mapError folds driver failures onto the store sentinels. Unknown errors
// pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr *moderncsqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return oops.Code("STORE_CONFLICT").Wrap(errors.Join(store.ErrAlreadyExists, err))
		case code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE"):
			return oops.Code("STORE_CONFLICT").Wrap(errors.Join(store.ErrAlreadyExists, err))
		case code&0xff == sqlite3.SQLITE_BUSY, code&0xff == sqlite3.SQLITE_LOCKED:
			return oops.Code("STORE_BUSY").Wrap(errors.Join(store.ErrUnavailable, err))
		}
	}

	return store.Classify(err)
}

// lookup turns sql.ErrNoRows into a plain miss.
func lookup[T, R any](row R, err error, mapRow func(R) T) (T, bool, error) {
	var zero T
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, mapError(err)
	}
	return mapRow(row), true, nil
}

func affected(n int64, err error) (bool, error) {
	if err != nil {
		return false, mapError(err)
	}
	return n > 0, nil
}

func utc(t time.Time) time.Time { return t.UTC() }

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Active:       row.Active,
		Superuser:    row.Superuser,
		CreatedOn:    utc(row.CreatedOn),
	}
}

func mapSessionToken(row gen.SessionToken) domain.SessionToken {
	return domain.SessionToken{
		ID:        row.ID,
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		ExpiresAt: utc(row.ExpiresAt),
		CreatedAt: utc(row.CreatedAt),
	}
}

var _ store.Store = (*Store)(nil)
