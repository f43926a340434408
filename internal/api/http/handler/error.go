package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JSayWhat/go-auth-api/internal/model"
)

// handleError maps service errors to HTTP responses. Crypto failures and
// store errors collapse into a generic 500: no error path may leak
// ciphertext, key material or which lookup failed.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
	case errors.Is(err, model.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid email or password"})
	case errors.Is(err, model.ErrAccessTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "access token expired"})
	case errors.Is(err, model.ErrInvalidToken):
		c.JSON(http.StatusForbidden, gin.H{"message": "invalid access token"})
	case errors.Is(err, model.ErrInvalidRefreshToken):
		c.JSON(http.StatusForbidden, gin.H{"message": "invalid refresh token"})
	case errors.Is(err, model.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"message": "forbidden"})
	case errors.Is(err, model.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "email already registered"})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
