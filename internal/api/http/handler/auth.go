package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JSayWhat/go-auth-api/internal/api/http/cookie"
	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
	"github.com/JSayWhat/go-auth-api/internal/service"
)

// Auth handles registration, login, token refresh and logout.
type Auth struct {
	auth       *service.Auth
	users      *service.Users
	cookieOpts cookie.Options
	logger     *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(auth *service.Auth, users *service.Users, cookieOpts cookie.Options, logger *logger.Logger) *Auth {
	return &Auth{auth: auth, users: users, cookieOpts: cookieOpts, logger: logger}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
}

// Register creates a new account with the default role.
func (h *Auth) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	identity, err := h.users.Register(c.Request.Context(), req.Password, model.RoleUser, service.Profile{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"userId": identity.UserID})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials, sets the refresh cookie and returns the
// access token.
func (h *Auth) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	identity, pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, err)
		return
	}

	cookie.SetRefresh(c.Writer, pair.RefreshToken, h.cookieOpts)
	c.JSON(http.StatusOK, gin.H{
		"userId":      identity.UserID,
		"role":        identity.Role,
		"accessToken": pair.AccessToken,
	})
}

// Refresh mints a new pair from the refresh cookie, rotating the cookie.
// The presented refresh token is invalidated whether or not a new pair is
// issued; reusing it afterwards fails.
func (h *Auth) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(cookie.RefreshCookieName)
	if err != nil || refreshToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "refresh token required"})
		return
	}

	identity, pair, err := h.auth.Authenticate(c.Request.Context(), "", refreshToken)
	if err != nil {
		handleError(c, err)
		return
	}

	cookie.SetRefresh(c.Writer, pair.RefreshToken, h.cookieOpts)
	c.Header("Authorization", "Bearer "+pair.AccessToken)
	c.JSON(http.StatusOK, gin.H{
		"userId":      identity.UserID,
		"role":        identity.Role,
		"accessToken": pair.AccessToken,
	})
}

// Logout clears the stored pair and the cookie. Idempotent: it succeeds
// and clears the cookie even when no valid credential is presented.
func (h *Auth) Logout(c *gin.Context) {
	accessToken := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	refreshToken, _ := c.Cookie(cookie.RefreshCookieName)

	if err := h.auth.Logout(c.Request.Context(), accessToken, refreshToken); err != nil {
		h.logger.Error("logout failed", "error", err.Error())
	}

	cookie.ClearRefresh(c.Writer, h.cookieOpts)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// KeepAlive extends the session. Authentication middleware has already
// advanced last activity; this endpoint just confirms it.
func (h *Auth) KeepAlive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "session extended"})
}
