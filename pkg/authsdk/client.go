package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultAPIBase is where the server mounts the account endpoints unless
// configured otherwise.
const DefaultAPIBase = "/api/auth"

// SDKClient is a client for the session authentication service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// APIBase is the path prefix of the account endpoints. Health endpoints
	// are always served from the root.
	APIBase string
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		APIBase: DefaultAPIBase,
	}
}

// Register creates an account. Whether it starts active is server policy.
func (c *SDKClient) Register(ctx context.Context, username, password string) (*UserResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, c.api("/register"), "", CredentialsRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var user UserResponse
	if err := decodeJSON(resp, &user, http.StatusCreated); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, c.api("/login"), "", CredentialsRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var login LoginResponse
	if err := decodeJSON(resp, &login, http.StatusOK); err != nil {
		return nil, err
	}
	return &login, nil
}

// AuthenticateWithPassword logs in and wraps the token in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, username, password string) (*Session, error) {
	login, err := c.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, login), nil
}

// NewSessionFromToken wraps a token obtained elsewhere. It is not checked
// until the first request.
func (c *SDKClient) NewSessionFromToken(token string) *Session {
	return &Session{client: c, token: token}
}

// Revoke deletes token server side. Revoking an unknown token returns
// ErrTokenNotFound.
func (c *SDKClient) Revoke(ctx context.Context, token string) error {
	resp, err := c.doJSON(ctx, http.MethodPost, c.api("/revoke"), "", RevokeRequest{Token: token})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// Me returns the identity the server resolves for token. An empty token
// asks as an anonymous caller.
func (c *SDKClient) Me(ctx context.Context, token string) (*IdentityResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.api("/me"), token, nil, nil)
	if err != nil {
		return nil, err
	}

	var id IdentityResponse
	if err := decodeJSON(resp, &id, http.StatusOK); err != nil {
		return nil, err
	}
	return &id, nil
}
