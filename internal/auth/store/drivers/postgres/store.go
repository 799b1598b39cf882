// Package postgres implements the auth store on PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DBTX is the query surface shared by the pool and an open transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is satisfied by *pgxpool.Pool and by pgxmock's pool.
type Pool interface {
	DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type Store struct {
	pool Pool
	dsn  string
}

// ConnectOptions bounds the startup connection attempts.
type ConnectOptions struct {
	Attempts uint64
	Backoff  time.Duration
}

var DefaultConnectOptions = ConnectOptions{Attempts: 5, Backoff: 250 * time.Millisecond}

// Connect opens a pool for dsn and retries the first ping with exponential
// backoff so the service can start alongside its database.
func Connect(ctx context.Context, dsn string, opts ConnectOptions) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_OPEN_FAILED").With("driver", "postgres").Wrap(err)
	}

	if opts.Attempts == 0 {
		opts = DefaultConnectOptions
	}
	backoff := retry.WithMaxRetries(opts.Attempts-1, retry.NewExponential(opts.Backoff))

	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_OPEN_FAILED").
			With("driver", "postgres").
			With("attempts", opts.Attempts).
			Wrap(errors.Join(store.ErrUnavailable, err))
	}

	s := New(pool)
	s.dsn = dsn
	return s, nil
}

// New wraps an existing pool. ApplyMigrations needs the DSN and is only
// available on stores built by Connect.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return mapError(s.pool.Ping(ctx))
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Repos) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return mapError(err)
	}

	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(repos{db: tx}); err != nil {
		finished = true
		_ = tx.Rollback(ctx)
		return err
	}

	finished = true
	return mapError(tx.Commit(ctx))
}

func (s *Store) Users() store.Users                 { return &usersRepo{db: s.pool} }
func (s *Store) SessionTokens() store.SessionTokens { return &sessionTokensRepo{db: s.pool} }

type repos struct{ db DBTX }

func (r repos) Users() store.Users                 { return &usersRepo{db: r.db} }
func (r repos) SessionTokens() store.SessionTokens { return &sessionTokensRepo{db: r.db} }

// mapError folds pgx failures onto the store sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.UniqueViolation:
			return oops.Code("STORE_CONFLICT").
				With("constraint", pgErr.ConstraintName).
				Wrap(errors.Join(store.ErrAlreadyExists, err))
		case pgerrcode.IsConnectionException(pgErr.Code),
			pgErr.Code == pgerrcode.AdminShutdown,
			pgErr.Code == pgerrcode.CannotConnectNow,
			pgErr.Code == pgerrcode.TooManyConnections:
			return oops.Code("STORE_UNAVAILABLE").Wrap(errors.Join(store.ErrUnavailable, err))
		case pgErr.Code == pgerrcode.QueryCanceled:
			return oops.Code("STORE_TIMEOUT").Wrap(errors.Join(store.ErrTimeout, err))
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return oops.Code("STORE_UNAVAILABLE").Wrap(errors.Join(store.ErrUnavailable, err))
	}

	if pgconn.Timeout(err) {
		return oops.Code("STORE_TIMEOUT").Wrap(errors.Join(store.ErrTimeout, err))
	}

	return store.Classify(err)
}

var (
	_ store.Store = (*Store)(nil)
	_ Pool        = (*pgxpool.Pool)(nil)
)
