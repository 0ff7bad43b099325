package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/artifact"
	"github.com/troikatech/call-router/internal/pipeline"
	"github.com/troikatech/call-router/pkg/errors"
	"github.com/troikatech/call-router/pkg/logger"
	"github.com/troikatech/call-router/pkg/metrics"
	"github.com/troikatech/call-router/pkg/monitor"
	"github.com/troikatech/call-router/pkg/webhook"
)

// HandleRecording queues the turn pipeline for a finished recording and
// returns at once. The call itself moves on via the record action's next URL.
func (h *Handler) HandleRecording(c *gin.Context) {
	start := time.Now()

	var ev webhook.RecordingEvent
	if err := c.ShouldBind(&ev); err != nil {
		errors.BadRequest(c, "invalid payload")
		return
	}
	ev.CallID = strings.TrimSpace(ev.CallID)
	ev.WavURL = strings.TrimSpace(ev.WavURL)

	turn, err := strconv.Atoi(c.Query("turn"))
	if err != nil || turn < 1 {
		errors.BadRequest(c, "turn is required")
		return
	}
	if ev.CallID == "" || ev.WavURL == "" {
		errors.BadRequest(c, "callid and wav are required")
		return
	}
	if _, err := artifact.Name(ev.CallID, turn); err != nil {
		h.logger.Warn("Ignoring recording with unsafe call id", zap.Int("turn", turn), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	s := h.settings.Current(c.Request.Context())
	req := pipeline.TurnRequest{
		CallID:   ev.CallID,
		Turn:     turn,
		WavURL:   ev.WavURL,
		Language: s.Language,
	}

	status, err := h.turns.Submit(c.Request.Context(), req)
	if err != nil {
		h.logger.Warn("Turn not queued", append(logger.TurnFields(req.CallID, req.Turn), zap.String("status", string(status)), zap.Error(err))...)
	}
	metrics.RecordRequest("/recordings", err == nil, time.Since(start))

	h.publish(monitor.Event{
		Type:   "recording",
		CallID: req.CallID,
		Turn:   req.Turn,
		Detail: map[string]interface{}{"status": string(status)},
		At:     time.Now(),
	})

	if status != pipeline.StatusAccepted {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "accepted"})
}

// TurnFinished publishes a finished turn to the monitor feed. Register it
// with the runner's OnResult.
func (h *Handler) TurnFinished(req pipeline.TurnRequest, res *pipeline.Result, err error) {
	detail := map[string]interface{}{"status": "ok"}
	if err != nil {
		detail["status"] = "failed"
		detail["stage"] = string(pipeline.FailedStage(err))
	}
	if res != nil {
		detail["elapsed_ms"] = res.Elapsed.Milliseconds()
		detail["soft_stt"] = res.SoftSTT
		detail["existing"] = res.Existing
	}
	h.publish(monitor.Event{
		Type:   "turn_finished",
		CallID: req.CallID,
		Turn:   req.Turn,
		Detail: detail,
		At:     time.Now(),
	})
}
