package handlers

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

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
)

// TurnSubmitter queues a recorded turn; *pipeline.Runner implements it.
type TurnSubmitter interface {
	Submit(ctx context.Context, req pipeline.TurnRequest) (pipeline.SubmitStatus, error)
}

// Deps are the collaborators the handlers need. Redis, Mongo, Audit and
// Sweeper are optional.
type Deps struct {
	Config    *env.Config
	Machine   *callflow.Machine
	Settings  *settings.Service
	Turns     TurnSubmitter
	Artifacts *artifact.Store
	AI        *ai.Stack
	Monitor   *monitor.Hub
	Audit     *audit.Logger
	Sweeper   *cleanup.Sweeper
	Redis     *redis.Client
	Mongo     *mongo.Client
	Logger    *zap.Logger
}

type Handler struct {
	cfg         *env.Config
	machine     *callflow.Machine
	settings    *settings.Service
	turns       TurnSubmitter
	artifacts   *artifact.Store
	ai          *ai.Stack
	hub         *monitor.Hub
	audit       *audit.Logger
	sweeper     *cleanup.Sweeper
	redisClient *redis.Client
	mongoClient *mongo.Client
	logger      *zap.Logger
}

func NewHandler(d Deps) *Handler {
	l := d.Logger
	if l == nil {
		l = logger.Log
	}
	return &Handler{
		cfg:         d.Config,
		machine:     d.Machine,
		settings:    d.Settings,
		turns:       d.Turns,
		artifacts:   d.Artifacts,
		ai:          d.AI,
		hub:         d.Monitor,
		audit:       d.Audit,
		sweeper:     d.Sweeper,
		redisClient: d.Redis,
		mongoClient: d.Mongo,
		logger:      l,
	}
}

func (h *Handler) publish(ev monitor.Event) {
	if h.hub != nil {
		h.hub.Publish(ev)
	}
}
