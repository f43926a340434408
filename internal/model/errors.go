package model

import "errors"

var (
	// ErrNotFound is returned by stores when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated means no credential was presented at all.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrAccessTokenExpired means the access token signature is valid but exp passed.
	// Clients should retry through the refresh flow.
	ErrAccessTokenExpired = errors.New("access token expired")
	// ErrInvalidToken means the presented access token is untrustworthy.
	ErrInvalidToken = errors.New("invalid access token")
	// ErrInvalidRefreshToken means the refresh flow cannot proceed without re-login.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	ErrNoKeyAvailable   = errors.New("no encryption key available")
	ErrNoKeyForDate     = errors.New("no encryption key for date")
	ErrDecryptionFailed = errors.New("decryption failed")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPermissionDenied   = errors.New("permission denied")
)
