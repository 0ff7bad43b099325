package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/troikatech/call-router/internal/settings"
	"github.com/troikatech/call-router/pkg/errors"
)

func (h *Handler) GetSettings(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSettings applies a partial JSON document over the current settings.
func (h *Handler) UpdateSettings(c *gin.Context) {
	current, err := h.settings.Get(c.Request.Context())
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}

	next := current
	if err := c.ShouldBindJSON(&next); err != nil {
		errors.BadRequest(c, err.Error())
		return
	}

	updated, err := h.settings.Update(c.Request.Context(), c.GetString("user_id"), next)
	if err != nil {
		var verr *settings.ValidationError
		if stderrors.As(err, &verr) {
			errors.ValidationFailed(c, verr.Fields)
			return
		}
		errors.InternalError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, updated)
}
