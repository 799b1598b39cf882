package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/pkg/idx"
	"github.com/samber/oops"
)

// UserStore adapts the users repository for the authentication core.
type UserStore struct {
	repos store.Repos
	clock Clock
}

func NewUserStore(repos store.Repos, clock Clock) *UserStore {
	return &UserStore{repos: repos, clock: clock}
}

// NewUser is the input to Create. PasswordHash must already be a digest.
type NewUser struct {
	Username     string
	PasswordHash string
	Active       bool
	Superuser    bool
}

// FindByUsername matches username exactly. With activeOnly set, disabled
// accounts are reported as absent.
func (s *UserStore) FindByUsername(ctx context.Context, username string, activeOnly bool) (domain.User, bool, error) {
	u, ok, err := s.repos.Users().GetUserByUsername(ctx, username, activeOnly)
	if err != nil {
		return domain.User{}, false, oops.Code("USER_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	return u, ok, nil
}

// FindByID looks a user up by id. A string that is not a well-formed id
// cannot name a user and is reported absent without a store round trip.
func (s *UserStore) FindByID(ctx context.Context, id string) (domain.User, bool, error) {
	if _, err := idx.Parse(id); err != nil {
		return domain.User{}, false, nil
	}

	u, ok, err := s.repos.Users().GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, false, oops.Code("USER_LOOKUP_FAILED").With("user_id", id).Wrap(err)
	}
	return u, ok, nil
}

// Create assigns an id and creation time and inserts the user. A username
// taken between any earlier check and this insert surfaces as
// ErrDuplicateUser.
func (s *UserStore) Create(ctx context.Context, nu NewUser) (domain.User, error) {
	now := s.clock.now()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Username:     nu.Username,
		PasswordHash: nu.PasswordHash,
		Active:       nu.Active,
		Superuser:    nu.Superuser,
		CreatedOn:    now,
	}

	if err := s.repos.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, oops.Code("AUTH_DUPLICATE_USER").
				With("username", nu.Username).
				Wrap(errors.Join(ErrDuplicateUser, err))
		}
		return domain.User{}, oops.Code("USER_CREATE_FAILED").With("username", nu.Username).Wrap(err)
	}
	return u, nil
}

// SetPasswordHash replaces the stored digest. False when the user is gone.
func (s *UserStore) SetPasswordHash(ctx context.Context, id, hash string) (bool, error) {
	ok, err := s.repos.Users().UpdatePasswordHash(ctx, id, hash)
	if err != nil {
		return false, oops.Code("USER_UPDATE_FAILED").With("user_id", id).Wrap(err)
	}
	return ok, nil
}
