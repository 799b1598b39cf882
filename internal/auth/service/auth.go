package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/metrics"
	"github.com/aussiebroadwan/sessionauth/internal/auth/session"
	"github.com/aussiebroadwan/sessionauth/pkg/cryptox"
	"github.com/aussiebroadwan/sessionauth/pkg/slogx"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/aussiebroadwan/sessionauth/internal/auth/service"

// AuthConfig tunes the authentication core.
type AuthConfig struct {
	// ActiveOnRegister is the active flag given to registrations that do not
	// choose one explicitly.
	ActiveOnRegister bool

	// Clock defaults to SystemClock.
	Clock Clock

	// Tracer defaults to the global provider's tracer.
	Tracer trace.Tracer
}

// AuthService is the authentication core: credential checks, session token
// issue/resolve/revoke and identity binding. It holds no per-request state.
type AuthService struct {
	users   *UserStore
	tokens  *TokenStore
	hasher  *cryptox.Hasher
	binder  session.Binder
	metrics *metrics.Metrics

	cfg    AuthConfig
	tracer trace.Tracer

	// dummyDigest is verified when the username is unknown so a miss costs
	// the same derivation as a wrong password.
	dummyDigest string
}

// AuthResult is returned by a successful Login. Token is the only copy of
// the plaintext bearer token.
type AuthResult struct {
	User      domain.User
	Token     string
	ExpiresAt time.Time
}

// RegisterParams is the input to RegisterUser. A nil Active falls back to
// AuthConfig.ActiveOnRegister.
type RegisterParams struct {
	Username  string
	Password  string
	Active    *bool
	Superuser bool
}

func NewAuthService(
	cfg AuthConfig,
	users *UserStore,
	tokens *TokenStore,
	hasher *cryptox.Hasher,
	binder session.Binder,
	m *metrics.Metrics,
) (*AuthService, error) {
	if binder == nil {
		binder = session.ContextBinder{}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	dummyPassword, err := cryptox.GeneratePassword()
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").Wrap(err)
	}
	dummyDigest, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, oops.Code("AUTH_INIT_FAILED").Wrap(err)
	}

	return &AuthService{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		binder:      binder,
		metrics:     m,
		cfg:         cfg,
		tracer:      tracer,
		dummyDigest: dummyDigest,
	}, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// ResolveUserForToken maps a bearer token to its active owner, sliding the
// token's expiry forward on success. Unknown, expired and orphaned tokens all
// resolve to nothing; only store failures are errors. Expired and orphaned
// tokens are deleted on the way out.
func (s *AuthService) ResolveUserForToken(ctx context.Context, token string) (domain.User, bool, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.ResolveUserForToken")
	defer span.End()
	l := slogx.FromContext(ctx)

	tok, ok, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		s.metrics.Resolution(metrics.ResultError)
		return domain.User{}, false, fail(span, err)
	}
	if !ok {
		s.metrics.Resolution(metrics.ResultUnknown)
		return domain.User{}, false, nil
	}
	span.SetAttributes(attribute.String("token.id", tok.ID))

	if tok.Expired(s.cfg.Clock.now()) {
		// Another request may have reclaimed it first; either way it is gone.
		if _, err := s.tokens.Delete(ctx, tok); err != nil {
			s.metrics.Resolution(metrics.ResultError)
			return domain.User{}, false, fail(span, err)
		}
		l.Debug("expired session token reclaimed", slog.String("token_id", tok.ID))
		s.metrics.Resolution(metrics.ResultExpired)
		return domain.User{}, false, nil
	}

	u, ok, err := s.users.FindByID(ctx, tok.UserID)
	if err != nil {
		s.metrics.Resolution(metrics.ResultError)
		return domain.User{}, false, fail(span, err)
	}
	if !ok || !u.Active {
		if _, err := s.tokens.Delete(ctx, tok); err != nil {
			s.metrics.Resolution(metrics.ResultError)
			return domain.User{}, false, fail(span, err)
		}
		l.Info("session token dropped for missing or inactive user",
			slog.String("token_id", tok.ID),
			slog.String("user_id", tok.UserID),
		)
		s.metrics.Resolution(metrics.ResultInactive)
		return domain.User{}, false, nil
	}

	if _, ok, err := s.tokens.Refresh(ctx, tok); err != nil {
		s.metrics.Resolution(metrics.ResultError)
		return domain.User{}, false, fail(span, err)
	} else if !ok {
		// Revoked between lookup and refresh.
		s.metrics.Resolution(metrics.ResultUnknown)
		return domain.User{}, false, nil
	}

	s.metrics.Resolution(metrics.ResultSuccess)
	return u, true, nil
}

// RegisterUser creates an account. The early lookup gives a fast answer for
// the common duplicate; the unique index decides the race.
func (s *AuthService) RegisterUser(ctx context.Context, p RegisterParams) (domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.RegisterUser",
		trace.WithAttributes(attribute.String("user.name", p.Username)))
	defer span.End()
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(p.Username) == "" || p.Password == "" {
		s.metrics.Registration(metrics.ResultInvalid)
		return domain.User{}, fail(span, oops.Code("AUTH_INVALID_INPUT").
			Hint("username and password are required").
			Wrap(ErrInvalidInput))
	}

	_, exists, err := s.users.FindByUsername(ctx, p.Username, false)
	if err != nil {
		s.metrics.Registration(metrics.ResultError)
		return domain.User{}, fail(span, err)
	}
	if exists {
		s.metrics.Registration(metrics.ResultDuplicate)
		return domain.User{}, fail(span, oops.Code("AUTH_DUPLICATE_USER").
			With("username", p.Username).
			Wrap(ErrDuplicateUser))
	}

	digest, err := s.hasher.Hash(p.Password)
	if err != nil {
		s.metrics.Registration(metrics.ResultError)
		return domain.User{}, fail(span, oops.Code("AUTH_HASH_FAILED").Wrap(err))
	}

	active := s.cfg.ActiveOnRegister
	if p.Active != nil {
		active = *p.Active
	}

	u, err := s.users.Create(ctx, NewUser{
		Username:     p.Username,
		PasswordHash: digest,
		Active:       active,
		Superuser:    p.Superuser,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			s.metrics.Registration(metrics.ResultDuplicate)
		} else {
			s.metrics.Registration(metrics.ResultError)
		}
		return domain.User{}, fail(span, err)
	}

	l.Info("user registered",
		slog.String("user_id", u.ID),
		slog.String("username", u.Username),
		slog.Bool("active", u.Active),
		slog.Bool("superuser", u.Superuser),
	)
	s.metrics.Registration(metrics.ResultSuccess)
	return u, nil
}

// authenticate returns the active user whose digest matches password.
// Absent users still pay for one derivation against the dummy digest.
func (s *AuthService) authenticate(ctx context.Context, username, password string) (domain.User, bool, error) {
	u, ok, err := s.users.FindByUsername(ctx, username, true)
	if err != nil {
		return domain.User{}, false, err
	}
	if !ok {
		_ = s.hasher.Verify(password, s.dummyDigest)
		return domain.User{}, false, nil
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return domain.User{}, false, nil
	}
	return u, true, nil
}

// CheckCredentials reports whether username/password match an active user.
// It errors only when the store fails.
func (s *AuthService) CheckCredentials(ctx context.Context, username, password string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.CheckCredentials")
	defer span.End()

	_, ok, err := s.authenticate(ctx, username, password)
	if err != nil {
		return false, fail(span, err)
	}
	return ok, nil
}

// Login checks credentials and issues a session token for the same user
// record the check matched.
func (s *AuthService) Login(ctx context.Context, username, password string) (AuthResult, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Login",
		trace.WithAttributes(attribute.String("user.name", username)))
	defer span.End()
	l := slogx.FromContext(ctx)
	start := time.Now()

	u, ok, err := s.authenticate(ctx, username, password)
	if err != nil {
		s.metrics.Login(metrics.ResultError, time.Since(start))
		return AuthResult{}, fail(span, err)
	}
	if !ok {
		l.Info("login rejected", slog.String("username", username))
		s.metrics.Login(metrics.ResultInvalid, time.Since(start))
		return AuthResult{}, fail(span, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials))
	}

	s.upgradeDigest(ctx, u, password)

	issued, err := s.tokens.Create(ctx, u.ID)
	if err != nil {
		s.metrics.Login(metrics.ResultError, time.Since(start))
		return AuthResult{}, fail(span, err)
	}

	l.Info("login succeeded",
		slog.String("user_id", u.ID),
		slog.String("token_id", issued.Record.ID),
	)
	s.metrics.Login(metrics.ResultSuccess, time.Since(start))
	return AuthResult{User: u, Token: issued.Token, ExpiresAt: issued.Record.ExpiresAt}, nil
}

// upgradeDigest rewrites a digest produced with weaker parameters. Failure
// only costs the upgrade, never the login.
func (s *AuthService) upgradeDigest(ctx context.Context, u domain.User, password string) {
	if !s.hasher.NeedsRehash(u.PasswordHash) {
		return
	}
	l := slogx.FromContext(ctx)

	digest, err := s.hasher.Hash(password)
	if err != nil {
		l.Warn("password rehash failed", slog.String("user_id", u.ID), slog.Any("error", err))
		return
	}
	if _, err := s.users.SetPasswordHash(ctx, u.ID, digest); err != nil {
		l.Warn("password rehash not stored", slog.String("user_id", u.ID), slog.Any("error", err))
		return
	}
	l.Debug("password digest upgraded", slog.String("user_id", u.ID), slog.Int("iterations", s.hasher.Iterations()))
}

// CompleteLogin binds the authenticated identity of the active user called
// username into the caller's session. When no such user exists the session
// is left untouched and ErrUserNotFound is returned.
func (s *AuthService) CompleteLogin(ctx context.Context, username string) (domain.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.CompleteLogin",
		trace.WithAttributes(attribute.String("user.name", username)))
	defer span.End()

	u, ok, err := s.users.FindByUsername(ctx, username, true)
	if err != nil {
		return domain.AnonymousIdentity(), fail(span, err)
	}
	if !ok {
		return domain.AnonymousIdentity(), fail(span, oops.Code("AUTH_USER_NOT_FOUND").
			With("username", username).
			Wrap(ErrUserNotFound))
	}

	return s.bind(ctx, span, u)
}

// AuthenticateSession binds the identity of a fresh login result. Login
// already matched an active user, so the record is bound as is.
func (s *AuthService) AuthenticateSession(ctx context.Context, res AuthResult) (domain.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.AuthenticateSession",
		trace.WithAttributes(attribute.String("user.name", res.User.Username)))
	defer span.End()

	if res.User.ID == "" {
		return domain.AnonymousIdentity(), fail(span, oops.Code("AUTH_INVALID_INPUT").
			Errorf("login result has no user: %w", ErrInvalidInput))
	}
	return s.bind(ctx, span, res.User)
}

func (s *AuthService) bind(ctx context.Context, span trace.Span, u domain.User) (domain.Identity, error) {
	id := domain.IdentityFor(u)
	if err := s.binder.SetIdentity(ctx, id); err != nil {
		return domain.AnonymousIdentity(), fail(span, oops.Code("AUTH_BIND_FAILED").Wrap(err))
	}
	return id, nil
}

// Logout clears the session identity and, when a token is given, revokes it
// server side. A token that is already gone is fine. The session is cleared
// even if revocation fails; both failures are reported.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	var revokeErr error
	if token != "" {
		if err := s.RevokeToken(ctx, token); err != nil && !errors.Is(err, ErrTokenNotFound) {
			revokeErr = err
		}
	}

	var bindErr error
	if err := s.binder.SetIdentity(ctx, domain.AnonymousIdentity()); err != nil {
		bindErr = oops.Code("AUTH_BIND_FAILED").Wrap(err)
	}

	if err := errors.Join(revokeErr, bindErr); err != nil {
		return fail(span, err)
	}
	return nil
}

// RevokeToken deletes the record behind token. ErrTokenNotFound when there
// is none, including when a concurrent request removed it first.
func (s *AuthService) RevokeToken(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "AuthService.RevokeToken")
	defer span.End()
	l := slogx.FromContext(ctx)

	tok, ok, err := s.tokens.FindByToken(ctx, token)
	if err != nil {
		return fail(span, err)
	}
	if !ok {
		return oops.Code("AUTH_TOKEN_NOT_FOUND").Wrap(ErrTokenNotFound)
	}

	deleted, err := s.tokens.Delete(ctx, tok)
	if err != nil {
		return fail(span, err)
	}
	if !deleted {
		return oops.Code("AUTH_TOKEN_NOT_FOUND").Wrap(ErrTokenNotFound)
	}

	l.Info("session token revoked", slog.String("token_id", tok.ID), slog.String("user_id", tok.UserID))
	s.metrics.TokenRevoked()
	return nil
}
