package settings

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/audit"
)

// Service reads settings for call handling and applies admin updates.
type Service struct {
	provider    Provider
	defaults    Settings
	countryCode string
	audit       *audit.Logger
	logger      *zap.Logger
}

func NewService(provider Provider, defaults Settings, countryCode string, auditLog *audit.Logger, logger *zap.Logger) *Service {
	return &Service{
		provider:    provider,
		defaults:    defaults,
		countryCode: countryCode,
		audit:       auditLog,
		logger:      logger,
	}
}

// Current never fails: a backend error falls back to the startup defaults so
// a call can always be routed.
func (s *Service) Current(ctx context.Context) Settings {
	current, err := s.provider.Get(ctx)
	if err != nil {
		s.logger.Warn("Settings backend unavailable, using defaults", zap.Error(err))
		return s.defaults
	}
	if current.FallbackNumber == "" {
		current.FallbackNumber = s.defaults.FallbackNumber
	}
	return current
}

// Get returns the stored settings or the backend error.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.provider.Get(ctx)
}

// Update normalizes, validates and stores next.
func (s *Service) Update(ctx context.Context, actor string, next Settings) (Settings, error) {
	next = next.Normalize(s.countryCode)
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}
	next.UpdatedAt = time.Now().UTC()
	next.UpdatedBy = actor

	if err := s.provider.Put(ctx, next); err != nil {
		return Settings{}, err
	}

	s.logger.Info("Settings updated",
		zap.String("actor", actor),
		zap.Int("max_turns", next.MaxTurns),
		zap.Bool("ai_replies_enabled", next.AIRepliesEnabled),
		zap.String("language", next.Language),
	)
	_ = s.audit.Log(ctx, actor, audit.ActionUpdate, "settings", documentID, map[string]interface{}{
		"max_turns":          next.MaxTurns,
		"language":           next.Language,
		"ai_replies_enabled": next.AIRepliesEnabled,
		"reply_wait_cycles":  next.ReplyWaitCycles,
	})
	return next, nil
}
