package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/service"
)

// Profile serves decrypted profile fields for a user.
type Profile struct {
	users  *service.Users
	logger *logger.Logger
}

// NewProfile creates a new Profile handler.
func NewProfile(users *service.Users, logger *logger.Logger) *Profile {
	return &Profile{users: users, logger: logger}
}

// Get returns the user's decrypted profile.
func (h *Profile) Get(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	profile, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":     profile.Email,
		"firstName": profile.FirstName,
		"lastName":  profile.LastName,
		"phone":     profile.Phone,
		"address":   profile.Address,
	})
}

type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Update re-encrypts and stores the user's profile fields.
func (h *Profile) Update(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	err := h.users.UpdateProfile(c.Request.Context(), userID, service.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "profile updated"})
}

func pathUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
		return uuid.Nil, false
	}
	return userID, true
}
