package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ArowuTest/competitions-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"
)

// Context keys set by JWTAuthMiddleware
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
)

// JWTAuthMiddleware creates a gin middleware for JWT authentication.
func JWTAuthMiddleware(tokens *jwt.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const BearerSchema = "Bearer "
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer "})
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(authHeader[len(BearerSchema):]))
		if err != nil {
			slog.Warn("Token validation failed", "path", c.FullPath(), "error", err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token has expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// RequireRole lets the request through only when the token's role is one of roles.
// It must run after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		slog.Warn("Role not permitted", "path", c.FullPath(), "role", role, "userId", c.GetString(ContextUserID))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}
