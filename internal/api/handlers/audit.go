package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/errors"
	"github.com/troikatech/call-router/pkg/utils"
)

// ListAuditLogs returns settings changes and logins, newest first.
func (h *Handler) ListAuditLogs(c *gin.Context) {
	if !h.audit.Enabled() {
		errors.ServiceUnavailable(c, "audit log requires MongoDB")
		return
	}
	pagination := utils.ParsePagination(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	entries, total, err := h.audit.List(ctx, pagination)
	if err != nil {
		h.logger.Error("Failed to fetch audit logs", zap.Error(err))
		errors.InternalError(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, utils.PaginatedResponse{
		Data:  entries,
		Page:  pagination.Page,
		Limit: pagination.Limit,
		Total: total,
		Count: len(entries),
	})
}
