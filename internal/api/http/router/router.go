package router

import (
	"github.com/gin-gonic/gin"

	"github.com/JSayWhat/go-auth-api/internal/api/http/cookie"
	"github.com/JSayWhat/go-auth-api/internal/api/http/handler"
	"github.com/JSayWhat/go-auth-api/internal/api/http/middleware"
	"github.com/JSayWhat/go-auth-api/internal/logger"
	"github.com/JSayWhat/go-auth-api/internal/model"
	"github.com/JSayWhat/go-auth-api/internal/rbac"
	"github.com/JSayWhat/go-auth-api/internal/service"
)

// Router wires handlers and middleware onto the HTTP engine.
type Router struct {
	authService *service.Auth
	users       *service.Users
	keys        handler.KeyStore
	cookieOpts  cookie.Options
	logger      *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	users *service.Users,
	keys handler.KeyStore,
	cookieOpts cookie.Options,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService: authService,
		users:       users,
		keys:        keys,
		cookieOpts:  cookieOpts,
		logger:      logger,
	}
}

// Register builds the engine with request logging and authentication
// middleware and mounts all routes.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.authService, r.cookieOpts, r.logger)

	authHandler := handler.NewAuth(r.authService, r.users, r.cookieOpts, r.logger)
	profileHandler := handler.NewProfile(r.users, r.logger)
	keysHandler := handler.NewKeys(r.keys, r.logger)

	e := gin.New()
	e.Use(gin.Recovery(), logging.Handle)

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)

	protected := api.Group("", authenticate.Handle)
	protected.GET("/auth/keepalive", authHandler.KeepAlive)

	users := protected.Group("/users/:id")
	users.GET("/profile", middleware.RequirePermission(rbac.ActionReadOwn, rbac.ActionRead), profileHandler.Get)
	users.PUT("/profile", middleware.RequirePermission(rbac.ActionEditOwn, rbac.ActionWrite), profileHandler.Update)

	admin := protected.Group("/admin", middleware.RequireRoles(model.RoleAdmin, model.RoleSuperAdmin))
	admin.GET("/keys", keysHandler.Status)
	admin.POST("/keys/rotate", keysHandler.Rotate)

	return e
}
