package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/errors"
	"github.com/troikatech/call-router/pkg/webhook"
)

// WebhookAuth checks the basic-auth credentials the call platform embeds in
// callback URLs. Disabled when no user is configured.
func WebhookAuth(creds webhook.Credentials, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !creds.Enabled() {
			c.Next()
			return
		}
		user, pass, _ := c.Request.BasicAuth()
		if err := creds.Verify(user, pass); err != nil {
			logger.Warn("Rejected webhook", zap.String("path", c.Request.URL.Path), zap.String("ip", c.ClientIP()), zap.Error(err))
			errors.Unauthorized(c, "invalid webhook credentials")
			return
		}
		c.Next()
	}
}
