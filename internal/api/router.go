// Package api wires the webhook, audio and admin routes.
package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/api/handlers"
	"github.com/troikatech/call-router/pkg/env"
	"github.com/troikatech/call-router/pkg/middleware"
	"github.com/troikatech/call-router/pkg/otel"
	"github.com/troikatech/call-router/pkg/webhook"
)

const (
	webhookBodyLimit = 64 << 10
	apiBodyLimit     = 12 << 20

	apiRateLimitRPM = 120
)

// NewRouter builds the HTTP surface. redisClient may be nil, in which case
// login attempts are limited in process memory.
func NewRouter(cfg *env.Config, h *handlers.Handler, redisClient *redis.Client, logger *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.TraceMiddleware())
	router.Use(middleware.SecurityHeaders())

	if cfg.OTELEnabled {
		router.Use(otel.GinMiddleware())
	}

	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("[%s] %s %s %d %s\n",
			param.TimeStamp.Format(time.RFC3339),
			param.Method,
			param.Path,
			param.StatusCode,
			param.Latency,
		)
	}))

	corsConfig := cors.DefaultConfig()
	if origins := cfg.AllowedOrigins(); len(origins) == 0 || origins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Call platform callbacks
	creds := webhook.Credentials{User: cfg.WebhookUser, Password: cfg.WebhookPassword}
	hooks := router.Group("/")
	hooks.Use(middleware.RequestSizeLimit(webhookBodyLimit))
	hooks.Use(middleware.WebhookAuth(creds, logger))
	{
		hooks.POST("/calls", h.HandleCallEvent)
		hooks.POST("/recordings", h.HandleRecording)
	}

	router.GET("/audio/:filename", middleware.ValidateAudioFilename("filename"), h.ServeAudio)

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", h.GetMetrics)
	router.GET("/metrics/prometheus", h.GetPrometheusMetrics)

	var loginLimiter gin.HandlerFunc
	if redisClient != nil {
		loginLimiter = middleware.NewAuthRateLimiter(redisClient, 5, 900, 1800).Middleware()
	} else {
		loginLimiter = middleware.NewRateLimiter(5).Middleware()
	}

	authGroup := router.Group("/auth")
	authGroup.Use(middleware.RequestSizeLimit(webhookBodyLimit))
	{
		authGroup.POST("/login", loginLimiter, h.Login)
	}

	rateLimiter := middleware.NewRateLimiter(apiRateLimitRPM)

	api := router.Group("/api")
	api.Use(middleware.RequestSizeLimit(apiBodyLimit))
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	api.Use(rateLimiter.Middleware())
	{
		api.GET("/settings", h.GetSettings)
		api.PUT("/settings", h.UpdateSettings)

		api.GET("/audit", h.ListAuditLogs)

		replies := api.Group("/replies")
		{
			replies.GET("", h.ListReplies)
			replies.POST("/sweep", h.SweepReplies)
			replies.DELETE("/:filename", middleware.ValidateAudioFilename("filename"), h.DeleteReply)
		}

		aiGroup := api.Group("/ai")
		{
			aiGroup.POST("/stt", h.SpeechToText)
			aiGroup.POST("/tts", h.TextToSpeech)
			aiGroup.POST("/reply", h.GenerateReply)
		}

		api.GET("/monitor/ws", h.MonitorWS)
	}

	return router
}
