package model

import "github.com/google/uuid"

// Identity is the authenticated principal attached to a request.
type Identity struct {
	UserID uuid.UUID
	Email  string
	Role   Role
}

// TokenPair is an access/refresh token pair bound to one user.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	IssuedTo     uuid.UUID
}

// TokenManager generates and validates access/refresh tokens.
// Access and refresh tokens are signed with distinct secrets.
type TokenManager interface {
	GenerateAccessToken(identity Identity) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (string, error)
	// ParseAccessToken returns ErrAccessTokenExpired when the signature is
	// valid but the token has expired, and ErrInvalidToken otherwise.
	ParseAccessToken(token string) (Identity, error)
	ParseRefreshToken(token string) (uuid.UUID, error)
}
