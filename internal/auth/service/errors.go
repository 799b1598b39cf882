package service

import "errors"

var (
	// ErrInvalidCredentials covers every login failure cause: unknown user,
	// inactive user and wrong password all look the same to the caller.
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrDuplicateUser      = errors.New("duplicate_user")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrTokenNotFound      = errors.New("token_not_found")
	ErrInvalidInput       = errors.New("invalid_input")
)
