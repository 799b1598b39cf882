package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/session"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/memory"
	"github.com/aussiebroadwan/sessionauth/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const testTTL = time.Hour

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	store  store.Store
	clock  *fakeClock
	hasher *cryptox.Hasher
	users  *UserStore
	tokens *TokenStore
	auth   *AuthService
}

func newTestHasher(t *testing.T) *cryptox.Hasher {
	t.Helper()
	h, err := cryptox.NewHasher(cryptox.HasherConfig{Iterations: cryptox.MinIterations})
	require.NoError(t, err)
	return h
}

func newTestEnvWithStore(t *testing.T, st store.Store) *testEnv {
	t.Helper()

	clock := newFakeClock()
	hasher := newTestHasher(t)
	users := NewUserStore(st, clock.Now)
	tokens := NewTokenStore(st, testTTL, clock.Now)

	auth, err := NewAuthService(AuthConfig{ActiveOnRegister: true, Clock: clock.Now}, users, tokens, hasher, nil, nil)
	require.NoError(t, err)

	return &testEnv{store: st, clock: clock, hasher: hasher, users: users, tokens: tokens, auth: auth}
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithStore(t, memory.NewStore())
}

// register creates an active user with password "secret".
func (e *testEnv) register(t *testing.T, username string) {
	t.Helper()
	_, err := e.auth.RegisterUser(context.Background(), RegisterParams{Username: username, Password: "secret"})
	require.NoError(t, err)
}

func withSession(ctx context.Context) (context.Context, *session.Session) {
	s := session.New()
	return session.NewContext(ctx, s), s
}
