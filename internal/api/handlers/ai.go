package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/ai"
	"github.com/troikatech/call-router/pkg/errors"
	"github.com/troikatech/call-router/pkg/metrics"
)

type ReplyRequest struct {
	Text     string `json:"text" binding:"required,max=1000"`
	Language string `json:"language"`
}

// GenerateReply shows what the LLM stage would answer to a transcript,
// including the sentence limit applied on calls.
func (h *Handler) GenerateReply(c *gin.Context) {
	start := time.Now()
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, err.Error())
		return
	}

	if h.ai == nil || !h.ai.Responder.IsAvailable() {
		errors.ServiceUnavailable(c, "AI service is not available")
		return
	}

	language := req.Language
	if language == "" {
		language = h.settings.Current(c.Request.Context()).Language
	}

	reply, err := h.ai.Responder.Respond(c.Request.Context(), req.Text, language)
	if err != nil {
		h.logger.Error("AI reply failed", zap.Error(err))
		metrics.RecordRequest("/api/ai/reply", false, time.Since(start))
		errors.ErrorResponse(c, http.StatusBadGateway, "Bad Gateway", "Failed to generate reply")
		return
	}
	metrics.RecordRequest("/api/ai/reply", true, time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"reply":    ai.LimitSentences(reply, 2),
		"raw":      reply,
		"language": language,
	})
}
