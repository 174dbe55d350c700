package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/smartqueue/backend/internal/domain/identity"
	"github.com/smartqueue/backend/internal/interfaces/http/dto"
)

// RequireRole lets the request through only for actors holding one of roles.
// It must run after the JWT middleware.
func RequireRole(roles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Authentication required", c.GetString(RequestIDKey)))
			return
		}
		if !slices.Contains(roles, actor.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeForbidden, "You are not allowed to perform this action", c.GetString(RequestIDKey)))
			return
		}
		c.Next()
	}
}

// RequireStaff allows staff, admins and super admins
func RequireStaff() gin.HandlerFunc {
	return RequireRole(identity.RoleStaff, identity.RoleAdmin, identity.RoleSuperAdmin)
}

// RequireAdmin allows organization admins and super admins
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleAdmin, identity.RoleSuperAdmin)
}

// RequireSuperAdmin allows super admins only
func RequireSuperAdmin() gin.HandlerFunc {
	return RequireRole(identity.RoleSuperAdmin)
}
