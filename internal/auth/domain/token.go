package domain

import "time"

// SessionToken is the stored record of one live session. The bearer token
// itself is never stored, only its fingerprint.
type SessionToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is no longer valid at now. A token is
// valid only while ExpiresAt is strictly in the future.
func (t SessionToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
