package auth

import (
	"errors"
	"net/http"
	"strings"

	"gymhub/internal/access"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

func AuthMiddleware(accessTokenSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.TrimSpace(parts[0]) != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is empty"})
			return
		}

		claims, err := ValidateToken(tokenString, accessTokenSecret)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case errors.Is(err, ErrInvalidTokenType):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			case errors.Is(err, ErrInvalidRole):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown role"})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or malformed token"})
			}
			return
		}

		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// RequireRole rejects requests whose identity holds none of roles.
func RequireRole(roles ...access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Identity not found"})
			return
		}

		for _, r := range roles {
			if identity.Role == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

func IdentityFrom(c *gin.Context) (access.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return access.Identity{}, false
	}
	identity, ok := v.(access.Identity)
	return identity, ok
}

// SetIdentity attaches identity to c. Used by tests that bypass token parsing.
func SetIdentity(c *gin.Context, identity access.Identity) {
	c.Set(identityKey, identity)
}
