package sqlite

import (
	"context"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	row, err := r.q.GetUserByID(ctx, id)
	return lookup(row, err, mapUser)
}

func (r *usersRepo) GetUserByUsername(
	ctx context.Context,
	username string,
	activeOnly bool,
) (domain.User, bool, error) {
	row, err := r.q.GetUserByUsername(ctx, username)
	u, ok, err := lookup(row, err, mapUser)
	if !ok || err != nil {
		return u, ok, err
	}
	if activeOnly && !u.Active {
		return domain.User{}, false, nil
	}
	return u, true, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	return mapError(r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Active:       u.Active,
		Superuser:    u.Superuser,
		CreatedOn:    utc(u.CreatedOn),
	}))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) (bool, error) {
	return affected(r.q.UpdateUserPasswordHash(ctx, gen.UpdateUserPasswordHashParams{
		PasswordHash: newHash,
		ID:           userID,
	}))
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) (bool, error) {
	return affected(r.q.UpdateUserActive(ctx, gen.UpdateUserActiveParams{
		Active: active,
		ID:     userID,
	}))
}

func (r *usersRepo) SetSuperuser(ctx context.Context, userID string, superuser bool) (bool, error) {
	return affected(r.q.UpdateUserSuperuser(ctx, gen.UpdateUserSuperuserParams{
		Superuser: superuser,
		ID:        userID,
	}))
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) (bool, error) {
	return affected(r.q.DeleteUser(ctx, userID))
}
