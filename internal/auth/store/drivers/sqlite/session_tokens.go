package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store/drivers/sqlite/gen"
)

type sessionTokensRepo struct {
	q *gen.Queries
}

func (r *sessionTokensRepo) CreateSessionToken(ctx context.Context, t domain.SessionToken) error {
	return mapError(r.q.CreateSessionToken(ctx, gen.CreateSessionTokenParams{
		ID:        t.ID,
		UserID:    t.UserID,
		TokenHash: t.TokenHash,
		ExpiresAt: utc(t.ExpiresAt),
		CreatedAt: utc(t.CreatedAt),
	}))
}

func (r *sessionTokensRepo) GetSessionTokenByHash(
	ctx context.Context,
	hash string,
) (domain.SessionToken, bool, error) {
	row, err := r.q.GetSessionTokenByHash(ctx, hash)
	return lookup(row, err, mapSessionToken)
}

func (r *sessionTokensRepo) UpdateSessionTokenExpiry(
	ctx context.Context,
	id string,
	expiresAt time.Time,
) (bool, error) {
	return affected(r.q.UpdateSessionTokenExpiry(ctx, gen.UpdateSessionTokenExpiryParams{
		ExpiresAt: utc(expiresAt),
		ID:        id,
	}))
}

func (r *sessionTokensRepo) DeleteSessionToken(ctx context.Context, id string) (bool, error) {
	return affected(r.q.DeleteSessionToken(ctx, id))
}

func (r *sessionTokensRepo) DeleteUserSessionTokens(ctx context.Context, userID string) (int64, error) {
	n, err := r.q.DeleteUserSessionTokens(ctx, userID)
	return n, mapError(err)
}

func (r *sessionTokensRepo) DeleteExpiredSessionTokens(ctx context.Context, now time.Time) (int64, error) {
	n, err := r.q.DeleteExpiredSessionTokens(ctx, utc(now))
	return n, mapError(err)
}
