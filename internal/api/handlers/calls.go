package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/callflow"
	"github.com/troikatech/call-router/pkg/metrics"
	"github.com/troikatech/call-router/pkg/monitor"
	"github.com/troikatech/call-router/pkg/utils"
	"github.com/troikatech/call-router/pkg/webhook"
)

// HandleCallEvent answers every call-platform callback with the next action.
// It always responds 200; bad input degrades to forwarding the caller.
func (h *Handler) HandleCallEvent(c *gin.Context) {
	start := time.Now()
	s := h.settings.Current(c.Request.Context())

	var ev webhook.CallEvent
	if err := c.ShouldBind(&ev); err != nil {
		h.logger.Warn("Malformed call event", zap.Error(err))
		action := h.machine.Fallback(s)
		metrics.RecordCallAction(action.Kind())
		metrics.RecordRequest("/calls", false, time.Since(start))
		c.JSON(http.StatusOK, action)
		return
	}
	ev.Normalize()

	ind := callflow.ParseIndicator(c.Query("mode"), c.Query("wait"))
	action := h.machine.Handle(c.Request.Context(), callflow.Identity{
		From:   ev.From,
		To:     ev.To,
		CallID: ev.CallID,
	}, ind, s)

	metrics.RecordCallAction(action.Kind())
	metrics.RecordRequest("/calls", true, time.Since(start))
	h.publish(monitor.Event{
		Type:   "call_event",
		CallID: ev.CallID,
		Turn:   ind.Turn,
		Detail: map[string]interface{}{
			"from":   utils.MaskPhoneNumber(ev.From),
			"mode":   ind.Mode(),
			"action": action.Kind(),
		},
		At: time.Now(),
	})

	c.JSON(http.StatusOK, action)
}
