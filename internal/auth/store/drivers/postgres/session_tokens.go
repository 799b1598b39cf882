package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/jackc/pgx/v5"
)

type sessionTokensRepo struct {
	db DBTX
}

func (r *sessionTokensRepo) CreateSessionToken(ctx context.Context, t domain.SessionToken) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO session_tokens (id, user_id, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt.UTC(), t.CreatedAt.UTC())
	return mapError(err)
}

func (r *sessionTokensRepo) GetSessionTokenByHash(
	ctx context.Context,
	hash string,
) (domain.SessionToken, bool, error) {
	var t domain.SessionToken
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, created_at
		 FROM session_tokens WHERE token_hash = $1`, hash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SessionToken{}, false, nil
	}
	if err != nil {
		return domain.SessionToken{}, false, mapError(err)
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	return t, true, nil
}

func (r *sessionTokensRepo) UpdateSessionTokenExpiry(ctx context.Context, id string, expiresAt time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE session_tokens SET expires_at = $1 WHERE id = $2`, expiresAt.UTC(), id)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *sessionTokensRepo) DeleteSessionToken(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM session_tokens WHERE id = $1`, id)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *sessionTokensRepo) DeleteUserSessionTokens(ctx context.Context, userID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM session_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *sessionTokensRepo) DeleteExpiredSessionTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM session_tokens WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, mapError(err)
	}
	return tag.RowsAffected(), nil
}
