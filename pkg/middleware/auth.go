package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/troikatech/call-router/pkg/auth"
	"github.com/troikatech/call-router/pkg/errors"
)

// AuthMiddleware accepts a bearer token, or a token query parameter for
// WebSocket upgrades where browsers cannot set headers.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") {
				errors.Unauthorized(c, "invalid authorization format")
				return
			}
			tokenString = token
		}
		if tokenString == "" {
			errors.Unauthorized(c, "authorization header required")
			return
		}

		claims, err := auth.ParseToken(tokenString, jwtSecret)
		if err != nil {
			errors.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set("user_id", claims.Subject)
		c.Next()
	}
}
