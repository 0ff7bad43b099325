// Package callflow decides the next call action from the caller and the
// position carried in the callback URL. It keeps no per-call state.
package callflow

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/troikatech/call-router/internal/artifact"
	"github.com/troikatech/call-router/internal/settings"
	"github.com/troikatech/call-router/pkg/logger"
	"github.com/troikatech/call-router/pkg/utils"
)

// RecordTimeLimit is the longest utterance recorded per turn, in seconds.
const RecordTimeLimit = 12

type Identity struct {
	From   string
	To     string
	CallID string
}

// ArtifactChecker reports whether a turn's reply audio is ready.
type ArtifactChecker interface {
	Exists(callID string, turn int) bool
}

// Prompts are file names under the audio directory.
type Prompts struct {
	Greeting    string
	Reassurance string
	Waiting     string
	Closing     string
}

type Machine struct {
	urls        URLs
	prompts     Prompts
	artifacts   ArtifactChecker
	countryCode string
	logger      *zap.Logger
}

func NewMachine(urls URLs, prompts Prompts, artifacts ArtifactChecker, countryCode string, logger *zap.Logger) *Machine {
	return &Machine{
		urls:        urls,
		prompts:     prompts,
		artifacts:   artifacts,
		countryCode: countryCode,
		logger:      logger,
	}
}

// Handle returns the action for one call event. It never fails; every
// input maps to some action.
func (m *Machine) Handle(ctx context.Context, id Identity, ind Indicator, s settings.Settings) Action {
	action, state := m.decide(id, ind, s)

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("call.id", id.CallID),
		attribute.String("call.state", state),
		attribute.String("call.action", action.Kind()),
	)
	m.logger.Info("Call event handled",
		append(logger.CallFields(id.CallID, id.From, id.To),
			zap.String("state", state),
			zap.String("action", action.Kind()),
		)...,
	)
	return action
}

func (m *Machine) decide(id Identity, ind Indicator, s settings.Settings) (Action, string) {
	if !utils.SamePhone(id.From, s.PrivilegedCaller, m.countryCode) {
		return m.connect(s, id), "unset"
	}

	maxTurns := s.Turns()
	if !s.AIRepliesEnabled || !ind.within(maxTurns) {
		ind = Indicator{}
	}

	switch ind.State {
	case StateRecord:
		return Record{
			Callback:         m.urls.Recordings(ind.Turn),
			SilenceDetection: true,
			TimeLimit:        RecordTimeLimit,
			Next:             m.urls.Calls(ReplyTurn(ind.Turn)),
		}, ind.Mode()

	case StateReply:
		next := m.urls.Calls(m.after(ind.Turn, maxTurns))
		if m.artifacts.Exists(id.CallID, ind.Turn) {
			if name, err := artifact.Name(id.CallID, ind.Turn); err == nil {
				return Play{URL: m.urls.Audio(name), Next: next}, ind.Mode()
			}
		}
		if ind.Wait < s.WaitCycles() && m.prompts.Waiting != "" {
			again := ind
			again.Wait++
			return Play{URL: m.urls.Audio(m.prompts.Waiting), Next: m.urls.Calls(again)}, ind.Mode() + "_wait"
		}
		m.logger.Info("Reply not ready, playing reassurance", logger.TurnFields(id.CallID, ind.Turn)...)
		return Play{URL: m.urls.Audio(m.prompts.Reassurance), Next: next}, ind.Mode() + "_fallback"

	case StateClosing:
		return m.closing(), "closing"
	}

	// Unset
	if !s.AIRepliesEnabled {
		if s.LegacyAudioFile != "" {
			return Play{URL: m.urls.Audio(s.LegacyAudioFile)}, "legacy"
		}
		return m.connect(s, id), "legacy"
	}
	if maxTurns == 0 {
		return m.closing(), "closing"
	}
	return Play{URL: m.urls.Audio(m.prompts.Greeting), Next: m.urls.Calls(RecordTurn(1))}, "greeting"
}

// after is the position following reply n.
func (m *Machine) after(n, maxTurns int) Indicator {
	if n < maxTurns {
		return RecordTurn(n + 1)
	}
	return Closing()
}

func (m *Machine) closing() Action {
	return Play{URL: m.urls.Audio(m.prompts.Closing)}
}

// connect forwards to the fallback number. With none configured the caller
// hears the closing prompt instead of an error.
func (m *Machine) connect(s settings.Settings, id Identity) Action {
	if s.FallbackNumber == "" {
		m.logger.Error("Unroutable call: no fallback number configured", logger.CallFields(id.CallID, id.From, id.To)...)
		return m.closing()
	}
	return Connect{Number: s.FallbackNumber}
}

// Fallback is the action for a call event that could not be parsed: the
// caller is forwarded as if unprivileged.
func (m *Machine) Fallback(s settings.Settings) Action {
	return m.connect(s, Identity{})
}
