package domain

import "time"

// User is one account. Username is unique and compared case-sensitively.
type User struct {
	ID           string
	Username     string
	PasswordHash string // pbkdf2-sha256 modular crypt digest
	Active       bool   // Disabled accounts cannot authenticate
	Superuser    bool
	CreatedOn    time.Time
}
