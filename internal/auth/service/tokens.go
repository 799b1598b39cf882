package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/aussiebroadwan/sessionauth/pkg/cryptox"
	"github.com/aussiebroadwan/sessionauth/pkg/idx"
	"github.com/samber/oops"
)

// DefaultTokenTTL is the sliding window applied on issue and on every
// successful resolution.
const DefaultTokenTTL = 24 * time.Hour

// maxIssueAttempts bounds regeneration after a fingerprint collision.
const maxIssueAttempts = 3

// TokenStore adapts the session token repository. Only fingerprints reach
// the store; the plaintext token exists in IssuedToken and nowhere else.
type TokenStore struct {
	repos    store.Repos
	ttl      time.Duration
	clock    Clock
	generate func() (token, fingerprint string, err error)
}

func NewTokenStore(repos store.Repos, ttl time.Duration, clock Clock) *TokenStore {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenStore{
		repos:    repos,
		ttl:      ttl,
		clock:    clock,
		generate: cryptox.GenerateSessionToken,
	}
}

func (s *TokenStore) TTL() time.Duration { return s.ttl }

// IssuedToken pairs the plaintext handed to the client with its record.
type IssuedToken struct {
	Token  string
	Record domain.SessionToken
}

// FindByToken looks the presented token up by fingerprint. An empty token is
// never found.
func (s *TokenStore) FindByToken(ctx context.Context, token string) (domain.SessionToken, bool, error) {
	if token == "" {
		return domain.SessionToken{}, false, nil
	}

	t, ok, err := s.repos.SessionTokens().GetSessionTokenByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		return domain.SessionToken{}, false, oops.Code("TOKEN_LOOKUP_FAILED").Wrap(err)
	}
	return t, ok, nil
}

// Create issues a fresh token for userID expiring one TTL from now.
func (s *TokenStore) Create(ctx context.Context, userID string) (IssuedToken, error) {
	var lastErr error
	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		token, fingerprint, err := s.generate()
		if err != nil {
			return IssuedToken{}, oops.Code("TOKEN_GENERATE_FAILED").Wrap(err)
		}

		now := s.clock.now()
		rec := domain.SessionToken{
			ID:        idx.NewAt(now).String(),
			UserID:    userID,
			TokenHash: fingerprint,
			ExpiresAt: now.Add(s.ttl),
			CreatedAt: now,
		}

		err = s.repos.SessionTokens().CreateSessionToken(ctx, rec)
		if err == nil {
			return IssuedToken{Token: token, Record: rec}, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			return IssuedToken{}, oops.Code("TOKEN_CREATE_FAILED").With("user_id", userID).Wrap(err)
		}
		lastErr = err
	}

	return IssuedToken{}, oops.Code("TOKEN_CREATE_FAILED").
		With("user_id", userID).
		With("attempts", maxIssueAttempts).
		Wrap(lastErr)
}

// Refresh slides the expiry to one TTL from now. False when the record
// vanished concurrently.
func (s *TokenStore) Refresh(ctx context.Context, t domain.SessionToken) (domain.SessionToken, bool, error) {
	expiresAt := s.clock.now().Add(s.ttl)

	ok, err := s.repos.SessionTokens().UpdateSessionTokenExpiry(ctx, t.ID, expiresAt)
	if err != nil {
		return domain.SessionToken{}, false, oops.Code("TOKEN_REFRESH_FAILED").With("token_id", t.ID).Wrap(err)
	}
	if !ok {
		return domain.SessionToken{}, false, nil
	}

	t.ExpiresAt = expiresAt
	return t, true, nil
}

// Delete removes t. False when it was already gone, which is not an error.
func (s *TokenStore) Delete(ctx context.Context, t domain.SessionToken) (bool, error) {
	ok, err := s.repos.SessionTokens().DeleteSessionToken(ctx, t.ID)
	if err != nil {
		return false, oops.Code("TOKEN_DELETE_FAILED").With("token_id", t.ID).Wrap(err)
	}
	return ok, nil
}

// DeleteForUser removes every token owned by userID.
func (s *TokenStore) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	n, err := s.repos.SessionTokens().DeleteUserSessionTokens(ctx, userID)
	if err != nil {
		return 0, oops.Code("TOKEN_DELETE_FAILED").With("user_id", userID).Wrap(err)
	}
	return n, nil
}

// DeleteExpired removes every token whose expiry is at or before now.
func (s *TokenStore) DeleteExpired(ctx context.Context) (int64, error) {
	n, err := s.repos.SessionTokens().DeleteExpiredSessionTokens(ctx, s.clock.now())
	if err != nil {
		return 0, oops.Code("TOKEN_PURGE_FAILED").Wrap(err)
	}
	return n, nil
}
