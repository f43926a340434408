package service

import (
	"fmt"

	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
)

// TokenService mints access/refresh token pairs. Issuing is a pure function
// of the identity, current time and signing secrets; persisting the pair
// (overwriting the previous one, which is what invalidates it) is the
// caller's side effect.
type TokenService struct {
	manager model.TokenManager
	logger  *logger.Logger
}

func NewTokenService(manager model.TokenManager, logger *logger.Logger) *TokenService {
	return &TokenService{manager: manager, logger: logger}
}

// Issue builds a new token pair bound to the identity.
func (s *TokenService) Issue(identity model.Identity) (model.TokenPair, error) {
	access, err := s.manager.GenerateAccessToken(identity)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue access: %w", err)
	}

	refresh, err := s.manager.GenerateRefreshToken(identity.UserID)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("issue refresh: %w", err)
	}

	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		IssuedTo:     identity.UserID,
	}, nil
}

// ParseAccess validates an access token and extracts the identity.
func (s *TokenService) ParseAccess(token string) (model.Identity, error) {
	return s.manager.ParseAccessToken(token)
}
