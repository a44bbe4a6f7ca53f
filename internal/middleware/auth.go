package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"labreserve/internal/domain"
	"labreserve/internal/pkg/jwt"
	"labreserve/internal/pkg/response"
)

const currentUserKey = "current_user"

// JWTAuth validates the bearer token and stores its claims in the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("email", claims.Email)
		c.Next()
	}
}

type UserLoader interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// LoadUser resolves the token subject to a stored user, so role changes and
// removed accounts take effect before the token expires.
func LoadUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.GetByID(c.Request.Context(), c.GetInt64("user_id"))
		if err != nil || user == nil {
			response.Error(c, http.StatusUnauthorized, "USER_NOT_FOUND", "Authenticated user no longer exists")
			c.Abort()
			return
		}
		c.Set("role", string(user.Role))
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by LoadUser, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

// SetCurrentUser is used by tests that mount handlers without a token.
func SetCurrentUser(c *gin.Context, u *domain.User) {
	c.Set("user_id", u.ID)
	c.Set("role", string(u.Role))
	c.Set(currentUserKey, u)
}
