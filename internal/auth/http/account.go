package http

import (
	"net/http"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/service"
	"github.com/aussiebroadwan/sessionauth/internal/auth/session"
	"github.com/aussiebroadwan/sessionauth/pkg/authsdk"
	"github.com/aussiebroadwan/sessionauth/pkg/errutil"
	"github.com/aussiebroadwan/sessionauth/pkg/httpx"
	"github.com/aussiebroadwan/sessionauth/pkg/slogx"
)

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Active:    u.Active,
		Superuser: u.Superuser,
		CreatedOn: u.CreatedOn,
	}
}

// RegisterHandler serves POST {base}/register. Accounts created here are
// never superusers; whether they start active is server configuration.
type RegisterHandler struct {
	Auth *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Register an account
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.CredentialsRequest	true	"username and password"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"missing username or password"
//	@Failure		409		{object}	authsdk.ErrorResponse	"username already exists"
//	@Failure		503		{object}	authsdk.ErrorResponse	"store unavailable"
//	@Router			/api/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.Auth.RegisterUser(r.Context(), service.RegisterParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, "register failed", err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, userResponse(user))
}

// LoginHandler serves POST {base}/login.
type LoginHandler struct {
	Auth *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Log in
//	@Description	Checks credentials and issues an opaque bearer token. Every failure cause
//	@Description	(unknown user, inactive user, wrong password) returns the same 401.
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.CredentialsRequest	true	"username and password"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"malformed body"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid credentials"
//	@Failure		503		{object}	authsdk.ErrorResponse	"store unavailable"
//	@Header			200		{string}	Cache-Control	"no-store"
//	@Router			/api/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req authsdk.CredentialsRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.Auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, "login failed", err)
		return
	}
	if _, err := h.Auth.AuthenticateSession(ctx, res); err != nil {
		// The token was never handed out; do not leave it live.
		if rerr := h.Auth.RevokeToken(ctx, res.Token); rerr != nil {
			errutil.LogError(slogx.FromContext(ctx), "revoke after failed bind", rerr)
		}
		writeServiceError(w, r, "session bind failed", err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresAt: res.ExpiresAt,
		User:      userResponse(res.User),
	})
}

// LogoutHandler serves POST {base}/logout. It expects RequireBearer to have
// run first.
type LogoutHandler struct {
	Auth *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Log out
//	@Description	Revokes the bearer token used for the request. Logging out an already
//	@Description	revoked or expired token still succeeds.
//	@Tags			Account
//	@Security		BearerAuth
//	@Success		204	"Logged out"
//	@Failure		401	{object}	authsdk.ErrorResponse	"missing bearer token"
//	@Failure		503	{object}	authsdk.ErrorResponse	"store unavailable"
//	@Router			/api/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token, _ := httpx.BearerTokenFromContext(r.Context())

	if err := h.Auth.Logout(r.Context(), token); err != nil {
		writeServiceError(w, r, "logout failed", err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// MeHandler serves GET {base}/me from the identity bound by SessionMiddleware.
type MeHandler struct{}

// ServeHTTP godoc
//
//	@Summary		Current identity
//	@Description	Returns the identity of the calling session. Requests without a valid
//	@Description	token get an anonymous identity rather than an error.
//	@Tags			Account
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.IdentityResponse
//	@Failure		503	{object}	authsdk.ErrorResponse	"store unavailable"
//	@Router			/api/auth/me [get].
func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := domain.AnonymousIdentity()
	if s, ok := session.FromContext(r.Context()); ok {
		id = s.Identity()
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.IdentityResponse{
		IsAuthenticated: id.IsAuthenticated,
		IsSuperuser:     id.IsSuperuser,
		Username:        id.Username,
	})
}

// RevokeHandler serves POST {base}/revoke. Unlike logout, revoking a token
// that does not exist is reported.
type RevokeHandler struct {
	Auth *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Revoke a token
//	@Tags			Account
//	@Accept			json
//	@Produce		json
//	@Param			body	body	authsdk.RevokeRequest	true	"token to revoke"
//	@Success		204		"Token revoked"
//	@Failure		400		{object}	authsdk.ErrorResponse	"missing token"
//	@Failure		404		{object}	authsdk.ErrorResponse	"token not found"
//	@Failure		503		{object}	authsdk.ErrorResponse	"store unavailable"
//	@Router			/api/auth/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RevokeRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil || req.Token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.Auth.RevokeToken(r.Context(), req.Token); err != nil {
		writeServiceError(w, r, "revoke failed", err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
