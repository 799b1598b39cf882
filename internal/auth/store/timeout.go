package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/samber/oops"
)

// Classify maps a context deadline hit anywhere in err's chain onto
// ErrTimeout so callers can tell a slow store from a broken one. Other
// errors pass through untouched.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return oops.Code("STORE_TIMEOUT").Wrap(errors.Join(ErrTimeout, err))
	default:
		return err
	}
}

// WithTimeout bounds every call on st by d and classifies deadline errors.
// A non-positive d returns st unchanged.
func WithTimeout(st Store, d time.Duration) Store {
	if d <= 0 {
		return st
	}
	return &timeoutStore{inner: st, d: d}
}

type bound time.Duration

func (b bound) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(b))
}

type timeoutStore struct {
	inner Store
	d     time.Duration
}

func (s *timeoutStore) Users() Users {
	return &timeoutUsers{inner: s.inner.Users(), b: bound(s.d)}
}

func (s *timeoutStore) SessionTokens() SessionTokens {
	return &timeoutTokens{inner: s.inner.SessionTokens(), b: bound(s.d)}
}

func (s *timeoutStore) ApplyMigrations() error { return s.inner.ApplyMigrations() }
func (s *timeoutStore) Close() error           { return s.inner.Close() }

func (s *timeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := bound(s.d).ctx(ctx)
	defer cancel()
	return Classify(s.inner.Ping(ctx))
}

// WithTx applies one deadline to the whole transaction.
func (s *timeoutStore) WithTx(ctx context.Context, fn func(tx Repos) error) error {
	ctx, cancel := bound(s.d).ctx(ctx)
	defer cancel()
	return Classify(s.inner.WithTx(ctx, fn))
}

type timeoutUsers struct {
	inner Users
	b     bound
}

func (u *timeoutUsers) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	ctx, cancel := u.b.ctx(ctx)
	defer cancel()
	user, ok, err := u.inner.GetUserByID(ctx, id)
	return user, ok, Classify(err)
}

func (u *timeoutUsers) GetUserByUsername(
	ctx context.Context,
	username string,
	activeOnly bool,
) (domain.User, bool, error) {
	ctx, cancel := u.b.ctx(ctx)
	defer cancel()
	user, ok, err := u.inner.GetUserByUsername(ctx, username, activeOnly)
	return user, ok, Classify(err)
}

func (u *timeoutUsers) CreateUser(ctx context.Context, user domain.User) error {
	ctx, cancel := u.b.ctx(ctx)
	defer cancel()
	return Classify(u.inner.CreateUser(ctx, user))
}

func (u *timeoutUsers) UpdatePasswordHash(ctx context.Context, userID, hash string) (bool, error) {
	ctx, cancel := u.b.ctx(ctx)
	defer cancel()
	ok, err := u.inner.UpdatePasswordHash(ctx, userID, hash)
	return ok, Classify(err)
}

func (u *timeoutUsers) SetActive(ctx context.Context, userID string, active bool) (bool, error) {
	ctx, cancel := u.b.ctx(ctx)
	defer cancel()
	ok, err := u.inner.SetActive(ctx, userID, active)
	return ok, Classify(err)
}

func (u *timeoutUsers) SetSuperuser(ctx context.Context, userID string, superuser bool) (bool, error) {
	ctx, cancel := u.b.ctx(ctx)
	defer cancel()
	ok, err := u.inner.SetSuperuser(ctx, userID, superuser)
	return ok, Classify(err)
}

func (u *timeoutUsers) DeleteUser(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := u.b.ctx(ctx)
	defer cancel()
	ok, err := u.inner.DeleteUser(ctx, userID)
	return ok, Classify(err)
}

type timeoutTokens struct {
	inner SessionTokens
	b     bound
}

func (t *timeoutTokens) CreateSessionToken(ctx context.Context, tok domain.SessionToken) error {
	ctx, cancel := t.b.ctx(ctx)
	defer cancel()
	return Classify(t.inner.CreateSessionToken(ctx, tok))
}

func (t *timeoutTokens) GetSessionTokenByHash(ctx context.Context, hash string) (domain.SessionToken, bool, error) {
	ctx, cancel := t.b.ctx(ctx)
	defer cancel()
	tok, ok, err := t.inner.GetSessionTokenByHash(ctx, hash)
	return tok, ok, Classify(err)
}

func (t *timeoutTokens) UpdateSessionTokenExpiry(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	ctx, cancel := t.b.ctx(ctx)
	defer cancel()
	ok, err := t.inner.UpdateSessionTokenExpiry(ctx, id, expiresAt)
	return ok, Classify(err)
}

func (t *timeoutTokens) DeleteSessionToken(ctx context.Context, id string) (bool, error) {
	ctx, cancel := t.b.ctx(ctx)
	defer cancel()
	ok, err := t.inner.DeleteSessionToken(ctx, id)
	return ok, Classify(err)
}

func (t *timeoutTokens) DeleteUserSessionTokens(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := t.b.ctx(ctx)
	defer cancel()
	n, err := t.inner.DeleteUserSessionTokens(ctx, userID)
	return n, Classify(err)
}

func (t *timeoutTokens) DeleteExpiredSessionTokens(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := t.b.ctx(ctx)
	defer cancel()
	n, err := t.inner.DeleteExpiredSessionTokens(ctx, now)
	return n, Classify(err)
}
