package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/audio"
	"github.com/troikatech/call-router/pkg/errors"
	"github.com/troikatech/call-router/pkg/metrics"
)

const maxSampleBytes = 10 << 20

// SpeechToText runs an uploaded WAV sample through the configured
// transcriber so operators can check the STT stage outside a call.
func (h *Handler) SpeechToText(c *gin.Context) {
	start := time.Now()

	if h.ai == nil || !h.ai.Transcriber.IsAvailable() {
		errors.ServiceUnavailable(c, "STT service is not available")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		errors.BadRequest(c, "file is required")
		return
	}
	src, err := file.Open()
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSampleBytes))
	if err != nil {
		errors.InternalError(c, err, h.logger)
		return
	}
	info, err := audio.InspectWAV(data)
	if err != nil {
		errors.BadRequest(c, "file must be a WAV recording")
		return
	}

	language := c.DefaultPostForm("language", h.settings.Current(c.Request.Context()).Language)

	transcript, err := h.ai.Transcriber.Transcribe(c.Request.Context(), data, language)
	if err != nil {
		h.logger.Error("STT service failed", zap.String("provider", h.ai.Transcriber.Name()), zap.Error(err))
		metrics.RecordRequest("/api/ai/stt", false, time.Since(start))
		errors.ErrorResponse(c, http.StatusBadGateway, "Bad Gateway", "Failed to transcribe speech")
		return
	}
	metrics.RecordRequest("/api/ai/stt", true, time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"provider":   h.ai.Transcriber.Name(),
		"text":       transcript.Text,
		"confidence": transcript.Confidence,
		"language":   language,
		"duration":   info.Duration.Seconds(),
	})
}
