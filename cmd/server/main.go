package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/api"
	"github.com/troikatech/call-router/internal/api/handlers"
	"github.com/troikatech/call-router/internal/artifact"
	"github.com/troikatech/call-router/internal/callflow"
	"github.com/troikatech/call-router/internal/cleanup"
	"github.com/troikatech/call-router/internal/pipeline"
	"github.com/troikatech/call-router/internal/settings"
	"github.com/troikatech/call-router/pkg/ai"
	"github.com/troikatech/call-router/pkg/audit"
	"github.com/troikatech/call-router/pkg/env"
	"github.com/troikatech/call-router/pkg/logger"
	"github.com/troikatech/call-router/pkg/mongo"
	"github.com/troikatech/call-router/pkg/monitor"
	"github.com/troikatech/call-router/pkg/otel"
)

const version = "1.0.0"

// Server holds the long-lived components so shutdown can stop them in order.
type Server struct {
	cfg         *env.Config
	redisClient *redis.Client
	mongoClient *mongo.Client
	runner      *pipeline.Runner
	sweeper     *cleanup.Sweeper
	http        *http.Server
}

func main() {
	cfg, err := env.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.LogLevel, cfg.AppEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Log.Fatal("Invalid configuration", zap.Error(err))
	}

	if cfg.OTELEnabled {
		shutdown, err := otel.InitTracing("call-router", version, cfg.OTELEndpoint)
		if err != nil {
			logger.Log.Warn("Failed to initialize OpenTelemetry", zap.Error(err))
		} else {
			defer shutdown()
			logger.Log.Info("OpenTelemetry tracing enabled", zap.String("endpoint", cfg.OTELEndpoint))
		}
	}

	logger.Log.Info("Starting call router",
		zap.String("env", cfg.AppEnv),
		zap.String("port", cfg.AppPort),
		zap.String("public_base_url", cfg.PublicBaseURL),
		zap.Bool("ai_replies_enabled", cfg.AIRepliesEnabled),
	)

	srv, err := newServer(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to start", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	srv.start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	srv.shutdown(shutdownCtx)

	logger.Log.Info("Server exited")
}

func newServer(cfg *env.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	// Redis is optional: without it turn claims and login limits stay in
	// process memory, which is fine for a single instance.
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		s.redisClient = redis.NewClient(opt)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Log.Info("Redis connected")
	}

	// MongoDB backs the settings store when selected, and the audit log.
	if cfg.SettingsBackend == "mongo" {
		client, err := mongo.NewClient(context.Background(), cfg.MongoURI, cfg.DBName)
		if err != nil {
			return nil, err
		}
		s.mongoClient = client
	}

	auditLog := audit.NewLogger(s.mongoClient, logger.Named("audit"))

	defaults := settings.Defaults(cfg)
	var provider settings.Provider
	switch cfg.SettingsBackend {
	case "mongo":
		provider = settings.NewMongoStore(s.mongoClient, defaults)
	default:
		provider = settings.NewFileStore(cfg.SettingsFile, defaults)
	}
	settingsSvc := settings.NewService(provider, defaults, cfg.DefaultCountryCode, auditLog, logger.Named("settings"))

	store, err := artifact.NewStore(cfg.AudioDir, artifact.Options{ValidateMP3: cfg.ValidateMP3}, logger.Named("artifact"))
	if err != nil {
		return nil, err
	}

	urls, err := callflow.NewURLs(cfg.PublicBaseURL, cfg.WebhookUser, cfg.WebhookPassword)
	if err != nil {
		return nil, fmt.Errorf("invalid PUBLIC_BASE_URL: %w", err)
	}
	machine := callflow.NewMachine(urls, callflow.Prompts{
		Greeting:    cfg.GreetingAudio,
		Reassurance: cfg.ReassuranceAudio,
		Waiting:     cfg.WaitingAudio,
		Closing:     cfg.ClosingAudio,
	}, store, cfg.DefaultCountryCode, logger.Named("callflow"))

	stack, err := ai.NewStack(aiOptions(cfg), logger.Named("ai"))
	if err != nil {
		return nil, err
	}
	if !stack.Ready() {
		logger.Log.Warn("AI stack incomplete; turns will fail and callers hear the reassurance prompt",
			zap.Bool("stt", stack.Transcriber.IsAvailable()),
			zap.Bool("llm", stack.Responder.IsAvailable()),
			zap.Bool("tts", stack.Synthesizer.IsAvailable()),
		)
	}

	fetcher := pipeline.NewFetcher(pipeline.FetcherConfig{
		TrustedDomains: cfg.TrustedMediaDomains,
		AllowInsecure:  cfg.AllowInsecureMedia,
		MaxBytes:       cfg.MaxMediaBytes,
		Timeout:        env.Millis(cfg.FetchTimeoutMs),
		User:           cfg.ElksAPIUser,
		Password:       cfg.ElksAPIPassword,
	})
	orchestrator := pipeline.NewOrchestrator(fetcher, stack.Transcriber, stack.Responder, stack.Synthesizer, store, pipeline.Config{
		FetchTimeout:  env.Millis(cfg.FetchTimeoutMs),
		STTTimeout:    env.Millis(cfg.STTTimeoutMs),
		LLMTimeout:    env.Millis(cfg.LLMTimeoutMs),
		TTSTimeout:    env.Millis(cfg.TTSTimeoutMs),
		SoftDeadline:  env.Millis(cfg.TurnSoftDeadlineMs),
		HardDeadline:  env.Millis(cfg.TurnHardDeadlineMs),
		MinConfidence: cfg.MinSTTConfidence,
		VoiceID:       stack.VoiceID,
	}, logger.Named("pipeline"))

	var claims pipeline.Claims
	if s.redisClient != nil {
		claims = pipeline.NewRedisClaims(s.redisClient)
	}
	s.runner = pipeline.NewRunner(orchestrator, claims, pipeline.RunnerConfig{
		Workers:   cfg.PipelineWorkers,
		QueueSize: cfg.PipelineQueueSize,
	}, logger.Named("runner"))

	s.sweeper = cleanup.NewSweeper(store, time.Duration(cfg.ReplyRetentionHours)*time.Hour, logger.Named("cleanup"))

	h := handlers.NewHandler(handlers.Deps{
		Config:    cfg,
		Machine:   machine,
		Settings:  settingsSvc,
		Turns:     s.runner,
		Artifacts: store,
		AI:        stack,
		Monitor:   monitor.NewHub(cfg.AllowedOrigins(), logger.Named("monitor")),
		Audit:     auditLog,
		Sweeper:   s.sweeper,
		Redis:     s.redisClient,
		Mongo:     s.mongoClient,
		Logger:    logger.Named("http"),
	})
	s.runner.OnResult(h.TurnFinished)

	s.http = &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      api.NewRouter(cfg, h, s.redisClient, logger.Named("http")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) start(ctx context.Context) {
	s.runner.Start()

	if s.cfg.CleanupIntervalMin > 0 {
		go s.sweeper.Run(ctx, time.Duration(s.cfg.CleanupIntervalMin)*time.Minute)
	}

	go func() {
		logger.Log.Info("Call router listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal("Server failed to start", zap.Error(err))
		}
	}()
}

// shutdown stops intake first, then drains queued turns, then closes stores.
func (s *Server) shutdown(ctx context.Context) {
	if err := s.http.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := s.runner.Shutdown(ctx); err != nil {
		logger.Log.Warn("Turn runner did not drain in time", zap.Error(err))
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			logger.Log.Warn("Failed to close Redis", zap.Error(err))
		}
	}
	if s.mongoClient != nil {
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			logger.Log.Warn("Failed to disconnect MongoDB", zap.Error(err))
		}
	}
}

func aiOptions(cfg *env.Config) ai.Options {
	return ai.Options{
		STTProvider:  cfg.STTProvider,
		LLMProviders: cfg.LLMProviders,
		TTSProvider:  cfg.TTSProvider,

		STTTimeout: env.Millis(cfg.STTTimeoutMs),
		LLMTimeout: env.Millis(cfg.LLMTimeoutMs),
		TTSTimeout: env.Millis(cfg.TTSTimeoutMs),

		SonioxAPIKey:   cfg.SonioxApiKey,
		SonioxBaseURL:  cfg.SonioxBaseURL,
		DeepgramAPIKey: cfg.DeepgramApiKey,
		DeepgramModel:  cfg.DeepgramModel,
		WhisperModel:   cfg.WhisperModel,

		DeepSeekAPIKey:  cfg.DeepSeekApiKey,
		DeepSeekBaseURL: cfg.DeepSeekBaseURL,
		DeepSeekModel:   cfg.DeepSeekModel,
		OpenAIAPIKey:    cfg.OpenAIApiKey,
		OpenAIModel:     cfg.OpenAIModel,
		AnthropicAPIKey: cfg.AnthropicApiKey,
		AnthropicModel:  cfg.AnthropicModel,
		GeminiAPIKey:    cfg.GeminiApiKey,
		GeminiModel:     cfg.GeminiModel,
		MaxTokens:       cfg.LLMMaxTokens,

		ElevenLabsAPIKey:       cfg.ElevenLabsApiKey,
		ElevenLabsModel:        cfg.ElevenLabsModel,
		ElevenLabsOutputFormat: cfg.ElevenLabsOutputFormat,
		ElevenLabsVoiceID:      cfg.ElevenLabsVoiceID,
		OpenAITTSVoice:         cfg.OpenAITTSVoice,
	}
}
