// Package memory is a process-local Store used by tests and single-node
// development runs. Nothing survives a restart.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/samber/oops"
)

type Store struct {
	mu     sync.RWMutex
	closed bool

	users      map[string]domain.User // by id
	usernames  map[string]string      // username -> id
	tokens     map[string]domain.SessionToken
	tokenIndex map[string]string // token hash -> id
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]domain.User),
		usernames:  make(map[string]string),
		tokens:     make(map[string]domain.SessionToken),
		tokenIndex: make(map[string]string),
	}
}

func (s *Store) Users() store.Users                 { return &usersRepo{s: s} }
func (s *Store) SessionTokens() store.SessionTokens { return &tokensRepo{s: s} }

// ApplyMigrations is a no-op; the maps need no schema.
func (s *Store) ApplyMigrations() error { return nil }

// WithTx runs fn against the store directly. Individual calls are atomic but
// the sequence is not isolated from concurrent writers.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Repos) error) error {
	if err := s.check(); err != nil {
		return err
	}
	return fn(s)
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.check()
}

func (s *Store) check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkLocked()
}

func (s *Store) checkLocked() error {
	if s.closed {
		return oops.Code("STORE_CLOSED").Wrap(store.ErrUnavailable)
	}
	return nil
}

type usersRepo struct{ s *Store }

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.checkLocked(); err != nil {
		return domain.User{}, false, err
	}

	u, ok := r.s.users[id]
	return u, ok, nil
}

func (r *usersRepo) GetUserByUsername(
	ctx context.Context,
	username string,
	activeOnly bool,
) (domain.User, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.checkLocked(); err != nil {
		return domain.User{}, false, err
	}

	id, ok := r.s.usernames[username]
	if !ok {
		return domain.User{}, false, nil
	}
	u := r.s.users[id]
	if activeOnly && !u.Active {
		return domain.User{}, false, nil
	}
	return u, true, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkLocked(); err != nil {
		return err
	}

	if _, taken := r.s.usernames[u.Username]; taken {
		return oops.Code("USER_ALREADY_EXISTS").With("username", u.Username).Wrap(store.ErrAlreadyExists)
	}
	if _, taken := r.s.users[u.ID]; taken {
		return oops.Code("USER_ALREADY_EXISTS").With("id", u.ID).Wrap(store.ErrAlreadyExists)
	}

	r.s.users[u.ID] = u
	r.s.usernames[u.Username] = u.ID
	return nil
}

func (r *usersRepo) update(userID string, fn func(u *domain.User)) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkLocked(); err != nil {
		return false, err
	}

	u, ok := r.s.users[userID]
	if !ok {
		return false, nil
	}
	fn(&u)
	r.s.users[userID] = u
	return true, nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) (bool, error) {
	return r.update(userID, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) (bool, error) {
	return r.update(userID, func(u *domain.User) { u.Active = active })
}

func (r *usersRepo) SetSuperuser(ctx context.Context, userID string, superuser bool) (bool, error) {
	return r.update(userID, func(u *domain.User) { u.Superuser = superuser })
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkLocked(); err != nil {
		return false, err
	}

	u, ok := r.s.users[userID]
	if !ok {
		return false, nil
	}
	delete(r.s.users, userID)
	delete(r.s.usernames, u.Username)

	// Mirror the ON DELETE CASCADE of the SQL schemas.
	r.s.deleteTokensLocked(func(t domain.SessionToken) bool { return t.UserID == userID })
	return true, nil
}

type tokensRepo struct{ s *Store }

func (r *tokensRepo) CreateSessionToken(ctx context.Context, t domain.SessionToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkLocked(); err != nil {
		return err
	}

	if _, ok := r.s.users[t.UserID]; !ok {
		return oops.Code("SESSION_TOKEN_ORPHANED").With("user_id", t.UserID).Errorf("memory: unknown user")
	}
	if _, taken := r.s.tokenIndex[t.TokenHash]; taken {
		return oops.Code("SESSION_TOKEN_ALREADY_EXISTS").Wrap(store.ErrAlreadyExists)
	}
	if _, taken := r.s.tokens[t.ID]; taken {
		return oops.Code("SESSION_TOKEN_ALREADY_EXISTS").With("id", t.ID).Wrap(store.ErrAlreadyExists)
	}

	r.s.tokens[t.ID] = t
	r.s.tokenIndex[t.TokenHash] = t.ID
	return nil
}

func (r *tokensRepo) GetSessionTokenByHash(ctx context.Context, hash string) (domain.SessionToken, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if err := r.s.checkLocked(); err != nil {
		return domain.SessionToken{}, false, err
	}

	id, ok := r.s.tokenIndex[hash]
	if !ok {
		return domain.SessionToken{}, false, nil
	}
	return r.s.tokens[id], true, nil
}

func (r *tokensRepo) UpdateSessionTokenExpiry(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkLocked(); err != nil {
		return false, err
	}

	t, ok := r.s.tokens[id]
	if !ok {
		return false, nil
	}
	t.ExpiresAt = expiresAt
	r.s.tokens[id] = t
	return true, nil
}

func (r *tokensRepo) DeleteSessionToken(ctx context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkLocked(); err != nil {
		return false, err
	}

	n := r.s.deleteTokensLocked(func(t domain.SessionToken) bool { return t.ID == id })
	return n > 0, nil
}

func (r *tokensRepo) DeleteUserSessionTokens(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkLocked(); err != nil {
		return 0, err
	}

	return r.s.deleteTokensLocked(func(t domain.SessionToken) bool { return t.UserID == userID }), nil
}

func (r *tokensRepo) DeleteExpiredSessionTokens(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkLocked(); err != nil {
		return 0, err
	}

	return r.s.deleteTokensLocked(func(t domain.SessionToken) bool { return t.Expired(now) }), nil
}

func (s *Store) deleteTokensLocked(match func(domain.SessionToken) bool) int64 {
	var n int64
	for id, t := range s.tokens {
		if match(t) {
			delete(s.tokens, id)
			delete(s.tokenIndex, t.TokenHash)
			n++
		}
	}
	return n
}

var _ store.Store = (*Store)(nil)
