package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GopikaPamisetty/Min-Team-Chat-App/pkg/jwt"
)

const (
	UserIDKey     = "user_id"
	EmailKey      = "email"
	NameKey       = "name"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
	TokenCookie   = "token"
)

// AuthMiddleware validates JWT access tokens.
type AuthMiddleware struct {
	tokens *jwt.Manager
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(tokens *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth returns a Gin middleware that validates the access token from
// the Authorization header or, failing that, the session cookie.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization token",
			})
			return
		}

		claims, err := m.tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token",
			})
			return
		}

		// Set user info in context
		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Set(NameKey, claims.Name)

		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if h := c.GetHeader(AuthHeaderKey); strings.HasPrefix(h, BearerPrefix) {
		return strings.TrimPrefix(h, BearerPrefix)
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// GetUserID extracts user ID from Gin context.
func GetUserID(c *gin.Context) string {
	if id, exists := c.Get(UserIDKey); exists {
		return id.(string)
	}
	return ""
}

// GetName extracts the display name from Gin context.
func GetName(c *gin.Context) string {
	if name, exists := c.Get(NameKey); exists {
		return name.(string)
	}
	return ""
}
