package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JSayWhat/go-auth-api/internal/api/http/middleware"
	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
)

// KeyStore is the admin surface of the rotating key store.
type KeyStore interface {
	Rotate(ctx context.Context) error
	Current() (model.KeyEntry, error)
	Len() int
}

// Keys exposes key-ring administration to privileged roles.
type Keys struct {
	keys   KeyStore
	logger *logger.Logger
}

// NewKeys creates a new Keys handler.
func NewKeys(keys KeyStore, logger *logger.Logger) *Keys {
	return &Keys{keys: keys, logger: logger}
}

// Status reports the retained generation count and head creation time. Key
// material itself is never returned.
func (h *Keys) Status(c *gin.Context) {
	entry, err := h.keys.Current()
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"keyCount":         h.keys.Len(),
		"currentCreatedAt": entry.CreatedAt.Format(time.RFC3339),
	})
}

// Rotate appends a new key generation. Older generations stay retained so
// existing ciphertext remains decryptable.
func (h *Keys) Rotate(c *gin.Context) {
	if err := h.keys.Rotate(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}

	identity, _ := middleware.IdentityFromContext(c)
	h.logger.Info("encryption key rotated", "by", identity.UserID)

	c.JSON(http.StatusOK, gin.H{
		"message":  "key rotated",
		"keyCount": h.keys.Len(),
	})
}
