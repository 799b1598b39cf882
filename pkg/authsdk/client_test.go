package authsdk_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessionauth/pkg/authsdk"
	"github.com/aussiebroadwan/sessionauth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

// fakeServer answers the account endpoints with canned responses and
// records the last Authorization header it saw.
type fakeServer struct {
	lastAuth string
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		if req.Username == "taken" {
			authsdk.ErrDuplicateUser.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, authsdk.UserResponse{ID: "01", Username: req.Username})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.CredentialsRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "good" {
			authsdk.ErrInvalidCredentials.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			Token:     "tok-" + req.Username,
			TokenType: "Bearer",
			ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
			User:      authsdk.UserResponse{ID: "01", Username: req.Username, Active: true},
		})
	})
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		token, ok := httpx.BearerToken(r)
		if !ok || token != "tok-alice" {
			httpx.WriteJSON(w, http.StatusOK, authsdk.IdentityResponse{})
			return
		}
		httpx.WriteJSON(w, http.StatusOK, authsdk.IdentityResponse{IsAuthenticated: true, Username: "alice"})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.lastAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/auth/revoke", func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.RevokeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Token != "tok-alice" {
			authsdk.ErrTokenNotFound.WriteError(w)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{Status: "ok", Version: "test"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusServiceUnavailable, authsdk.HealthResponse{Status: "degraded"})
	})
	return mux
}

func newClient(t *testing.T) (*authsdk.SDKClient, *fakeServer) {
	t.Helper()
	f := &fakeServer{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return authsdk.NewSDKClient(srv.URL + "/"), f
}

func TestRegister(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	user, err := c.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	_, err = c.Register(ctx, "taken", "pw")
	require.ErrorIs(t, err, authsdk.ErrDuplicateUser)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestSessionLifecycle(t *testing.T) {
	c, f := newClient(t)
	ctx := context.Background()

	_, err := c.AuthenticateWithPassword(ctx, "alice", "bad")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	s, err := c.AuthenticateWithPassword(ctx, "alice", "good")
	require.NoError(t, err)
	require.Equal(t, "tok-alice", s.Token())
	require.Equal(t, "alice", s.User().Username)
	require.False(t, s.ExpiresAt().IsZero())

	id, err := s.Me(ctx)
	require.NoError(t, err)
	require.True(t, id.IsAuthenticated)
	require.Equal(t, "Bearer tok-alice", f.lastAuth)

	require.NoError(t, s.Logout(ctx))
	require.Equal(t, "Bearer tok-alice", f.lastAuth)
	require.Empty(t, s.Token())

	_, err = s.Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrLoggedOut)
	require.ErrorIs(t, s.Logout(ctx), authsdk.ErrLoggedOut)
}

func TestMe_Anonymous(t *testing.T) {
	c, f := newClient(t)

	id, err := c.Me(context.Background(), "")
	require.NoError(t, err)
	require.False(t, id.IsAuthenticated)
	require.Empty(t, f.lastAuth)
}

func TestRevoke(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.Revoke(ctx, "tok-alice"))
	require.ErrorIs(t, c.Revoke(ctx, "nope"), authsdk.ErrTokenNotFound)
}

func TestHealth(t *testing.T) {
	c, _ := newClient(t)
	ctx := context.Background()

	live, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	_, err = c.GetReadiness(ctx)
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

func TestAPIError_Is(t *testing.T) {
	decoded := authsdk.NewAPIError(http.StatusConflict, authsdk.ErrorCodeDuplicateUser, "whatever text")
	require.ErrorIs(t, decoded, authsdk.ErrDuplicateUser)
	require.NotErrorIs(t, decoded, authsdk.ErrTokenNotFound)
}
