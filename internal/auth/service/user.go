package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/pkg/cryptox"
	"github.com/aussiebroadwan/sessionauth/pkg/slogx"
	"github.com/samber/oops"
)

// UserService holds the administrative operations behind the CLI. Changes
// that lock a user out also drop their sessions in the same transaction.
type UserService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Clock  Clock
}

func (s *UserService) find(ctx context.Context, repos store.Repos, username string) (domain.User, error) {
	u, ok, err := NewUserStore(repos, s.Clock).FindByUsername(ctx, username, false)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, oops.Code("AUTH_USER_NOT_FOUND").With("username", username).Wrap(ErrUserNotFound)
	}
	return u, nil
}

// GetByUsername fetches a user regardless of the active flag.
func (s *UserService) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return s.find(ctx, s.Store, username)
}

// SetActive flips the active flag. Deactivation revokes every session token
// the user holds.
func (s *UserService) SetActive(ctx context.Context, username string, active bool) error {
	l := slogx.FromContext(ctx)

	var revoked int64
	err := s.Store.WithTx(ctx, func(tx store.Repos) error {
		u, err := s.find(ctx, tx, username)
		if err != nil {
			return err
		}
		if _, err := tx.Users().SetActive(ctx, u.ID, active); err != nil {
			return oops.Code("USER_UPDATE_FAILED").With("username", username).Wrap(err)
		}
		if active {
			return nil
		}
		revoked, err = NewTokenStore(tx, 0, s.Clock).DeleteForUser(ctx, u.ID)
		return err
	})
	if err != nil {
		return err
	}

	l.Info("user active flag changed",
		slog.String("username", username),
		slog.Bool("active", active),
		slog.Int64("tokens_revoked", revoked),
	)
	return nil
}

// SetSuperuser flips the superuser flag.
func (s *UserService) SetSuperuser(ctx context.Context, username string, superuser bool) error {
	err := s.Store.WithTx(ctx, func(tx store.Repos) error {
		u, err := s.find(ctx, tx, username)
		if err != nil {
			return err
		}
		if _, err := tx.Users().SetSuperuser(ctx, u.ID, superuser); err != nil {
			return oops.Code("USER_UPDATE_FAILED").With("username", username).Wrap(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("user superuser flag changed",
		slog.String("username", username),
		slog.Bool("superuser", superuser),
	)
	return nil
}

// SetPassword replaces the user's password and revokes their sessions.
func (s *UserService) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return oops.Code("AUTH_INVALID_INPUT").Hint("password is required").Wrap(ErrInvalidInput)
	}

	digest, err := s.Hasher.Hash(password)
	if err != nil {
		return oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	return s.Store.WithTx(ctx, func(tx store.Repos) error {
		u, err := s.find(ctx, tx, username)
		if err != nil {
			return err
		}
		if _, err := NewUserStore(tx, s.Clock).SetPasswordHash(ctx, u.ID, digest); err != nil {
			return err
		}
		_, err = NewTokenStore(tx, 0, s.Clock).DeleteForUser(ctx, u.ID)
		return err
	})
}

// Delete removes the user; their tokens go with them.
func (s *UserService) Delete(ctx context.Context, username string) error {
	return s.Store.WithTx(ctx, func(tx store.Repos) error {
		u, err := s.find(ctx, tx, username)
		if err != nil {
			return err
		}
		ok, err := tx.Users().DeleteUser(ctx, u.ID)
		if err != nil {
			return oops.Code("USER_DELETE_FAILED").With("username", username).Wrap(err)
		}
		if !ok {
			return oops.Code("AUTH_USER_NOT_FOUND").With("username", username).Wrap(ErrUserNotFound)
		}
		return nil
	})
}
