package postgres

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, password_hash, active, superuser, created_on`

type usersRepo struct {
	db DBTX
}

func scanUser(row pgx.Row) (domain.User, bool, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Active, &u.Superuser, &u.CreatedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, mapError(err)
	}
	u.CreatedOn = u.CreatedOn.UTC()
	return u, true, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByUsername(
	ctx context.Context,
	username string,
	activeOnly bool,
) (domain.User, bool, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND (active OR NOT $2)`,
		username, activeOnly))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.PasswordHash, u.Active, u.Superuser, u.CreatedOn.UTC())
	return mapError(err)
}

func (r *usersRepo) exec(ctx context.Context, sql string, args ...any) (bool, error) {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) (bool, error) {
	return r.exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, userID)
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) (bool, error) {
	return r.exec(ctx, `UPDATE users SET active = $1 WHERE id = $2`, active, userID)
}

func (r *usersRepo) SetSuperuser(ctx context.Context, userID string, superuser bool) (bool, error) {
	return r.exec(ctx, `UPDATE users SET superuser = $1 WHERE id = $2`, superuser, userID)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) (bool, error) {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
}
