package authsdk

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// ErrLoggedOut is returned by Session methods after Logout.
var ErrLoggedOut = errors.New("authsdk: session logged out")

// Session holds one bearer token and makes authenticated requests with it.
// It is safe for concurrent use.
type Session struct {
	client *SDKClient

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
	user      UserResponse
}

func newSession(client *SDKClient, login *LoginResponse) *Session {
	return &Session{
		client:    client,
		token:     login.Token,
		expiresAt: login.ExpiresAt,
		user:      login.User,
	}
}

// Token returns the bearer token, or "" after Logout.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ExpiresAt is the expiry reported at login. The server slides it forward on
// every authenticated request, so this is a lower bound.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// User is the account the session was opened for. Zero for sessions built
// with NewSessionFromToken.
func (s *Session) User() UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Me returns the identity the server currently resolves for this session.
// An expired or revoked token yields an anonymous identity, not an error.
func (s *Session) Me(ctx context.Context) (*IdentityResponse, error) {
	token := s.Token()
	if token == "" {
		return nil, ErrLoggedOut
	}
	return s.client.Me(ctx, token)
}

// Logout revokes the token server side and forgets it locally. The local
// copy is dropped even when the request fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.token = ""
	s.mu.Unlock()

	if token == "" {
		return ErrLoggedOut
	}

	resp, err := s.client.doRequest(ctx, http.MethodPost, s.client.api("/logout"), token, nil, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
