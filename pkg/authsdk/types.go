package authsdk

import "time"

// ErrorResponse is the JSON error body. Client code should use the APIError
// type from errors.go instead.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Account Types
// ============================================================================

// CredentialsRequest is the body of POST /register and POST /login.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserResponse is the public view of an account. The password digest never
// leaves the server.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Active    bool      `json:"active"`
	Superuser bool      `json:"superuser"`
	CreatedOn time.Time `json:"created_on"`
}

// ============================================================================
// Session Types
// ============================================================================

// LoginResponse is returned by POST /login. Token is the only time the
// plaintext bearer token is ever sent.
type LoginResponse struct {
	// Token is the opaque bearer token
	Token string `json:"token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresAt is the initial expiry; every authenticated request slides it
	// forward by the server's token TTL.
	ExpiresAt time.Time `json:"expires_at"`

	User UserResponse `json:"user"`
}

// IdentityResponse is returned by GET /me. Anonymous callers get
// IsAuthenticated=false and an empty Username.
type IdentityResponse struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	IsSuperuser     bool   `json:"is_superuser"`
	Username        string `json:"username,omitempty"`
}

// RevokeRequest is the body of POST /revoke.
type RevokeRequest struct {
	Token string `json:"token"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks represents the status of critical service dependencies.
type HealthChecks struct {
	// Database indicates the store connection status
	Database string `json:"database"`
}
