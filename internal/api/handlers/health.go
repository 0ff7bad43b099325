package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (h *Handler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	services := map[string]string{
		"api":      "healthy",
		"settings": "healthy",
	}

	if _, err := h.settings.Get(ctx); err != nil {
		services["settings"] = "unhealthy"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(ctx).Err(); err != nil {
			services["redis"] = "unhealthy"
		} else {
			services["redis"] = "healthy"
		}
	}

	if h.mongoClient != nil {
		if err := h.mongoClient.Ping(ctx); err != nil {
			services["database"] = "unhealthy"
		} else {
			services["database"] = "healthy"
		}
	}

	// AI stages are reported but only degrade the status, since calls still
	// route without them.
	if h.ai != nil {
		services["stt"] = availability(h.ai.Transcriber.IsAvailable())
		services["llm"] = availability(h.ai.Responder.IsAvailable())
		services["tts"] = availability(h.ai.Synthesizer.IsAvailable())
	} else {
		services["ai"] = "disabled"
	}

	overallStatus := "healthy"
	for _, status := range services {
		if status == "unhealthy" || status == "unavailable" {
			overallStatus = "degraded"
			break
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().Format(time.RFC3339),
		Services:  services,
	})
}

func availability(ok bool) string {
	if ok {
		return "available"
	}
	return "unavailable"
}
