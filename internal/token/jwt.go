package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

// accessClaims carries the full identity so authenticated requests need no
// extra user lookup.
type accessClaims struct {
	jwt.RegisteredClaims
	Email  string     `json:"email"`
	UserID uuid.UUID  `json:"user_id"`
	Role   model.Role `json:"role"`
}

// refreshClaims carries only the user ID.
type refreshClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
}

// JWT implements TokenManager backed by symmetric HMAC. Access and refresh
// tokens are signed with distinct secrets so one class of token can never
// pass for the other.
type JWT struct {
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

// NewJWT creates a new JWT token manager with the provided secrets and TTLs.
// Non-positive TTLs fall back to the defaults.
func NewJWT(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) model.TokenManager {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	return &JWT{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// GenerateAccessToken creates a short-lived access token for the identity.
func (j *JWT) GenerateAccessToken(identity model.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		Email:  identity.Email,
		UserID: identity.UserID,
		Role:   identity.Role,
	})

	tokenString, err := token.SignedString([]byte(j.accessSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// GenerateRefreshToken creates a long-lived refresh token.
func (j *JWT) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString([]byte(j.refreshSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken validates an access token and extracts the identity.
// An expired-but-authentic token yields ErrAccessTokenExpired so callers
// can route it through the refresh flow; everything else untrustworthy
// yields ErrInvalidToken.
func (j *JWT) ParseAccessToken(tokenString string) (model.Identity, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.accessSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, model.ErrAccessTokenExpired
		}
		return model.Identity{}, model.ErrInvalidToken
	}
	if !token.Valid {
		return model.Identity{}, model.ErrInvalidToken
	}

	return model.Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// ParseRefreshToken validates a refresh token and extracts the user ID.
// Any failure, expiry included, yields ErrInvalidRefreshToken: a bad
// refresh token is never retryable without re-login.
func (j *JWT) ParseRefreshToken(tokenString string) (uuid.UUID, error) {
	claims := &refreshClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.refreshSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, model.ErrInvalidRefreshToken
	}

	return claims.UserID, nil
}
