package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JSayWhat/go-auth-api/internal/api/http/cookie"
	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
)

const identityKey = "identity"

// Authenticator runs the request authentication state machine and returns
// a fresh pair when a silent refresh happened.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken, refreshToken string) (model.Identity, *model.TokenPair, error)
}

// Authenticate validates bearer tokens, drives the silent refresh flow and
// injects the identity into the request context.
type Authenticate struct {
	auth       Authenticator
	cookieOpts cookie.Options
	logger     *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(auth Authenticator, cookieOpts cookie.Options, logger *logger.Logger) *Authenticate {
	return &Authenticate{auth: auth, cookieOpts: cookieOpts, logger: logger}
}

// Handle authenticates the request. With a valid access token the request
// proceeds untouched. When the silent refresh flow issued a new pair, the
// refresh cookie is rotated and the new access token is returned in the
// Authorization response header for the client to adopt.
func (m *Authenticate) Handle(c *gin.Context) {
	accessToken := bearerToken(c.GetHeader("Authorization"))
	refreshToken := refreshFromCookie(c)

	identity, pair, err := m.auth.Authenticate(c.Request.Context(), accessToken, refreshToken)
	if err != nil {
		m.reject(c, err)
		return
	}

	if pair != nil {
		cookie.SetRefresh(c.Writer, pair.RefreshToken, m.cookieOpts)
		c.Header("Authorization", "Bearer "+pair.AccessToken)
	}

	c.Set(identityKey, identity)
	c.Next()
}

func (m *Authenticate) reject(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
	case errors.Is(err, model.ErrAccessTokenExpired):
		// 401, distinct body: the client should retry through refresh.
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "access token expired"})
	case errors.Is(err, model.ErrInvalidToken):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid access token"})
	case errors.Is(err, model.ErrInvalidRefreshToken):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "invalid refresh token"})
	default:
		m.logger.Error("authentication failed", "error", err.Error())
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

// IdentityFromContext retrieves the authenticated identity set by Handle.
func IdentityFromContext(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func refreshFromCookie(c *gin.Context) string {
	token, err := c.Cookie(cookie.RefreshCookieName)
	if err != nil {
		return ""
	}
	return token
}
