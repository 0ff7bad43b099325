package handlers

import (
	"crypto/subtle"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/audit"
	"github.com/troikatech/call-router/pkg/auth"
	"github.com/troikatech/call-router/pkg/errors"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Login exchanges the admin password for an access token. There is a single
// admin account configured through the environment.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, err.Error())
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.AdminUser)) == 1
	err := auth.VerifyPassword(h.cfg.AdminPasswordHash, req.Password)
	if stderrors.Is(err, auth.ErrPasswordNotConfigured) {
		errors.ServiceUnavailable(c, "admin login is not configured")
		return
	}
	if err != nil || !userOK {
		h.logger.Warn("Failed admin login", zap.String("ip", c.ClientIP()))
		_ = h.audit.Log(c.Request.Context(), req.Username, audit.ActionLoginFailed, "session", "", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		errors.Unauthorized(c, "invalid credentials")
		return
	}

	token, expiresAt, err := auth.GenerateAccessToken(h.cfg.AdminUser, h.cfg.JWTSecret, h.cfg.JWTIssuer, h.cfg.AccessTTLMin)
	if err != nil {
		h.logger.Error("Failed to generate access token", zap.Error(err))
		errors.InternalError(c, err, h.logger)
		return
	}

	_ = h.audit.Log(c.Request.Context(), h.cfg.AdminUser, audit.ActionLogin, "session", "", map[string]interface{}{
		"ip": c.ClientIP(),
	})

	c.JSON(http.StatusOK, AuthResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
	})
}
