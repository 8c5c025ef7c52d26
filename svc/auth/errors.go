package auth

import "errors"

var (
	ErrInvalidCode      = errors.New("authorization code is invalid or expired")
	ErrNoEmail          = errors.New("provider returned no email")
	ErrEmailNotVerified = errors.New("provider email is not verified")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidState     = errors.New("oauth state mismatch")
	ErrInvalidSession   = errors.New("session token is invalid")
	ErrForbidden        = errors.New("insufficient role")
)
