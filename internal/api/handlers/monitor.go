package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/troikatech/call-router/pkg/errors"
)

// MonitorWS upgrades to the live call event feed.
func (h *Handler) MonitorWS(c *gin.Context) {
	if h.hub == nil {
		errors.ServiceUnavailable(c, "monitor feed is disabled")
		return
	}
	h.hub.ServeWS(c.Writer, c.Request)
}
