package auth

import "errors"

// 面向用户的可恢复错误，调用方通过 errors.Is 判断。
var (
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicateUsername     = errors.New("username already taken")
	ErrInvalidOrExpiredToken = errors.New("verification link is invalid or expired")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrUnverified            = errors.New("email address not verified")
	ErrInvalidSessionToken   = errors.New("invalid session token")
	ErrPasswordTooLong       = errors.New("password exceeds 72 bytes")

	errEmptySigningKey = errors.New("signing key is required")
)
