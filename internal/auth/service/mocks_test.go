package service

import (
	"context"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/stretchr/testify/mock"
)

type mockRepos struct {
	users  *mockUsers
	tokens *mockTokens
}

func (r *mockRepos) Users() store.Users                 { return r.users }
func (r *mockRepos) SessionTokens() store.SessionTokens { return r.tokens }

type mockUsers struct{ mock.Mock }

func (m *mockUsers) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

func (m *mockUsers) GetUserByUsername(ctx context.Context, username string, activeOnly bool) (domain.User, bool, error) {
	args := m.Called(ctx, username, activeOnly)
	return args.Get(0).(domain.User), args.Bool(1), args.Error(2)
}

func (m *mockUsers) CreateUser(ctx context.Context, u domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUsers) UpdatePasswordHash(ctx context.Context, userID, hash string) (bool, error) {
	args := m.Called(ctx, userID, hash)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) SetActive(ctx context.Context, userID string, active bool) (bool, error) {
	args := m.Called(ctx, userID, active)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) SetSuperuser(ctx context.Context, userID string, superuser bool) (bool, error) {
	args := m.Called(ctx, userID, superuser)
	return args.Bool(0), args.Error(1)
}

func (m *mockUsers) DeleteUser(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type mockTokens struct{ mock.Mock }

func (m *mockTokens) CreateSessionToken(ctx context.Context, t domain.SessionToken) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTokens) GetSessionTokenByHash(ctx context.Context, hash string) (domain.SessionToken, bool, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(domain.SessionToken), args.Bool(1), args.Error(2)
}

func (m *mockTokens) UpdateSessionTokenExpiry(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	args := m.Called(ctx, id, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokens) DeleteSessionToken(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokens) DeleteUserSessionTokens(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokens) DeleteExpiredSessionTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
