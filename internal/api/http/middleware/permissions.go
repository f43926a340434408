package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/JSayWhat/go-auth-api/internal/model"
	"github.com/JSayWhat/go-auth-api/internal/rbac"
)

// RequirePermission gates a route on the RBAC table; the request proceeds
// when any of the listed actions is allowed. For owner-scoped actions the
// target owner is taken from the :id path parameter; routes without one are
// treated as self-access.
func RequirePermission(actions ...rbac.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}

		ownerID := identity.UserID
		if raw := c.Param("id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid user id"})
				return
			}
			ownerID = parsed
		}

		for _, action := range actions {
			if rbac.CanPerformAction(identity, action, ownerID) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "forbidden"})
	}
}

// RequireRoles gates a route on role membership alone.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}

		for _, role := range roles {
			if identity.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "insufficient permissions"})
	}
}
