package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/JSayWhat/go-auth-api/internal/credentials"
	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
)

// LookupCipher is the deterministic cipher used for the email lookup column.
type LookupCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(encrypted string) (string, error)
}

// Auth implements the per-request authentication state machine: access
// token validation, silent refresh, login and logout. Shared mutable state
// (token columns, sessions) lives in the backing store; the only in-process
// guard needed is the conditional token swap that serializes refreshes.
type Auth struct {
	users    model.UserStore
	sessions model.SessionStore
	tokens   *TokenService
	lookup   LookupCipher
	logger   *logger.Logger
}

func NewAuth(
	users model.UserStore,
	sessions model.SessionStore,
	tokens *TokenService,
	lookup LookupCipher,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		lookup:   lookup,
		logger:   logger,
	}
}

// Login verifies credentials, issues a fresh pair, persists it (supersedes
// any prior pair) and opens a session.
func (a *Auth) Login(ctx context.Context, email, password string) (model.Identity, model.TokenPair, error) {
	lookup, err := a.lookup.Encrypt(email)
	if err != nil {
		return model.Identity{}, model.TokenPair{}, fmt.Errorf("failed to encrypt email lookup: %w", err)
	}

	user, err := a.users.GetByEmailLookup(ctx, lookup)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, model.TokenPair{}, model.ErrInvalidCredentials
		}
		return model.Identity{}, model.TokenPair{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := credentials.VerifyPassword(user.PasswordHash, password); err != nil {
		a.logger.Info("login rejected", "user_id", user.ID)
		return model.Identity{}, model.TokenPair{}, model.ErrInvalidCredentials
	}

	identity := model.Identity{UserID: user.ID, Email: email, Role: user.Role}

	pair, err := a.tokens.Issue(identity)
	if err != nil {
		return model.Identity{}, model.TokenPair{}, err
	}

	if err := a.users.UpdateTokens(ctx, user.ID, pair.AccessToken, pair.RefreshToken); err != nil {
		return model.Identity{}, model.TokenPair{}, err
	}

	if _, err := a.sessions.Start(ctx, user.ID); err != nil {
		return model.Identity{}, model.TokenPair{}, err
	}

	a.logger.Info("user logged in", "user_id", user.ID)
	return identity, pair, nil
}

// Authenticate runs the request state machine. On a valid access token it
// returns the identity with no new pair. When the access token is absent or
// unknown to the store it falls through to the refresh flow and, on
// success, returns the identity plus the freshly issued pair for the caller
// to hand back to the client. Expired and invalid access tokens surface as
// ErrAccessTokenExpired and ErrInvalidToken respectively so the transport
// can keep 401 and 403 distinct.
func (a *Auth) Authenticate(ctx context.Context, accessToken, refreshToken string) (model.Identity, *model.TokenPair, error) {
	if accessToken == "" {
		return a.refresh(ctx, refreshToken)
	}

	user, err := a.users.GetByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Superseded or unknown access token: the stored column is the
			// source of truth for the current pair, so fall back to refresh.
			return a.refresh(ctx, refreshToken)
		}
		return model.Identity{}, nil, fmt.Errorf("failed to look up access token: %w", err)
	}

	identity, err := a.tokens.ParseAccess(accessToken)
	if err != nil {
		return model.Identity{}, nil, err
	}

	if err := a.sessions.Touch(ctx, user.ID); err != nil {
		return model.Identity{}, nil, err
	}

	return identity, nil, nil
}

// refresh is the silent-refresh flow: verify the refresh token, locate its
// owner, atomically swap in a new pair and touch the session. The swap is
// conditional on the presented token still being the stored one; a
// concurrent refresh that already rotated it makes this call fail with
// ErrInvalidRefreshToken instead of clobbering the winner's pair.
func (a *Auth) refresh(ctx context.Context, refreshToken string) (model.Identity, *model.TokenPair, error) {
	if refreshToken == "" {
		return model.Identity{}, nil, model.ErrUnauthenticated
	}

	userID, err := a.tokens.manager.ParseRefreshToken(refreshToken)
	if err != nil {
		return model.Identity{}, nil, err
	}

	user, err := a.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, nil, model.ErrInvalidRefreshToken
		}
		return model.Identity{}, nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if user.ID != userID {
		return model.Identity{}, nil, model.ErrInvalidRefreshToken
	}

	email, err := a.lookup.Decrypt(user.EmailLookup)
	if err != nil {
		return model.Identity{}, nil, fmt.Errorf("failed to decrypt email: %w", err)
	}

	identity := model.Identity{UserID: user.ID, Email: email, Role: user.Role}

	pair, err := a.tokens.Issue(identity)
	if err != nil {
		return model.Identity{}, nil, err
	}

	if err := a.users.SwapTokens(ctx, user.ID, refreshToken, pair.AccessToken, pair.RefreshToken); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, nil, model.ErrInvalidRefreshToken
		}
		return model.Identity{}, nil, err
	}

	if err := a.sessions.Touch(ctx, user.ID); err != nil {
		return model.Identity{}, nil, err
	}

	a.logger.Debug("refreshed token pair", "user_id", user.ID)
	return identity, &pair, nil
}

// Logout clears the caller's stored pair and ends the session. It is
// idempotent: unknown or absent tokens still succeed, so clients can always
// clear their cookie.
func (a *Auth) Logout(ctx context.Context, accessToken, refreshToken string) error {
	user, err := a.users.GetByAccessToken(ctx, accessToken)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("failed to look up access token: %w", err)
		}
		user, err = a.users.GetByRefreshToken(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to look up refresh token: %w", err)
		}
	}

	if err := a.users.ClearTokens(ctx, user.ID); err != nil {
		return err
	}
	if err := a.sessions.End(ctx, user.ID); err != nil {
		return err
	}

	a.logger.Info("user logged out", "user_id", user.ID)
	return nil
}
