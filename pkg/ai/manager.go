package ai

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Manager is a Responder that tries its providers in order and returns the
// first success. It stops early once ctx is done.
type Manager struct {
	providers []Responder
	logger    *zap.Logger
}

func NewManager(providers []Responder, logger *zap.Logger) *Manager {
	return &Manager{providers: providers, logger: logger}
}

func (m *Manager) Name() string {
	if p := m.GetAvailableProvider(); p != nil {
		return p.Name()
	}
	return "none"
}

func (m *Manager) IsAvailable() bool {
	return m.GetAvailableProvider() != nil
}

// GetAvailableProvider returns the first configured provider.
func (m *Manager) GetAvailableProvider() Responder {
	for _, provider := range m.providers {
		if provider.IsAvailable() {
			return provider
		}
	}
	return nil
}

func (m *Manager) Respond(ctx context.Context, text, language string) (string, error) {
	var lastErr error
	tried := 0
	for _, provider := range m.providers {
		if !provider.IsAvailable() {
			continue
		}
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			break
		}
		tried++

		reply, err := provider.Respond(ctx, text, language)
		if err == nil && reply != "" {
			return reply, nil
		}
		if err == nil {
			err = fmt.Errorf("%s returned an empty reply", provider.Name())
		}
		lastErr = err
		m.logger.Warn("LLM provider failed, trying next",
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)
	}

	if tried == 0 && lastErr == nil {
		return "", fmt.Errorf("no LLM providers: %w", ErrUnavailable)
	}
	return "", fmt.Errorf("all LLM providers failed. Last error: %w", lastErr)
}
