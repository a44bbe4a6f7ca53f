package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"labreserve/internal/domain"
	"labreserve/internal/pkg/response"
)

// RequireRole ensures that the authenticated user has one of roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Role not found in token")
			c.Abort()
			return
		}

		for _, r := range roles {
			if string(r) == role {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
		c.Abort()
	}
}

// ManagersOnly admits admins and lab managers.
func ManagersOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin, domain.RoleLabManager)
}
