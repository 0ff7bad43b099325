package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/artifact"
	"github.com/troikatech/call-router/pkg/errors"
	"github.com/troikatech/call-router/pkg/metrics"
)

type TTSRequest struct {
	Text    string `json:"text" binding:"required,max=500"`
	VoiceID string `json:"voice_id"`
}

// TextToSpeech synthesizes text with the configured voice and returns the
// MP3 directly. Nothing is written to the audio directory.
func (h *Handler) TextToSpeech(c *gin.Context) {
	start := time.Now()
	var req TTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, err.Error())
		return
	}

	if h.ai == nil || !h.ai.Synthesizer.IsAvailable() {
		errors.ServiceUnavailable(c, "TTS service is not available")
		return
	}

	voice := req.VoiceID
	if voice == "" {
		voice = h.ai.VoiceID
	}

	audioData, err := h.ai.Synthesizer.Synthesize(c.Request.Context(), req.Text, voice)
	if err != nil {
		h.logger.Error("TTS service failed", zap.String("provider", h.ai.Synthesizer.Name()), zap.Error(err))
		metrics.RecordRequest("/api/ai/tts", false, time.Since(start))
		errors.ErrorResponse(c, http.StatusBadGateway, "Bad Gateway", "Failed to generate speech")
		return
	}
	metrics.RecordRequest("/api/ai/tts", true, time.Since(start))

	c.Header("Content-Disposition", "inline; filename=speech.mp3")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, artifact.MIMEType, audioData)
}
