package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/auth"
	"github.com/florentincondu/proiect-web-sub000/internal/models"
	"github.com/florentincondu/proiect-web-sub000/internal/services"
	"github.com/florentincondu/proiect-web-sub000/internal/utils"
)

const (
	// ContextKeyUserID holds the caller's utils.SixID in the Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyRole holds the caller's models.Role in the Gin context.
	ContextKeyRole = "role"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			AbortWithError(c, http.StatusUnauthorized, "Authorization header required", nil)
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			AbortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}", nil)
			return
		}

		claims, err := auth.ValidateJWT(parts[1], jwtSecret)
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "Invalid or expired token", err)
			return
		}
		// ValidateJWT has already checked the subject parses.
		userID := utils.MustParseSixID(claims.UserID)

		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyRole, claims.Role)
		c.Next()
	}
}

// RequireRoles lets the request through only when the caller holds one of roles.
// Assumes AuthMiddleware runs first.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			AbortWithError(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		AbortWithError(c, http.StatusForbidden, "Insufficient privileges", nil)
	}
}

// AdminMiddleware creates a Gin middleware to check for admin privileges.
func AdminMiddleware() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}

// CurrentActor returns the authenticated caller set by AuthMiddleware.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return services.Actor{}, false
	}
	userID, ok := v.(utils.SixID)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := c.Get(ContextKeyRole)
	r, _ := role.(models.Role)
	return services.Actor{ID: userID, Role: r}, true
}
