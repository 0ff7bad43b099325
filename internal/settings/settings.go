// Package settings is the routing configuration the call state machine reads
// on every call event. Stores persist the whole document; missing fields
// take the startup defaults.
package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/troikatech/call-router/pkg/env"
	"github.com/troikatech/call-router/pkg/validation"
)

const (
	MaxTurnsLimit      = 5
	MaxReplyWaitCycles = 3
)

var supportedLanguages = map[string]bool{"sv": true, "en": true}

type Settings struct {
	PrivilegedCaller string    `json:"privileged_caller" bson:"privileged_caller"`
	FallbackNumber   string    `json:"fallback_number" bson:"fallback_number"`
	MaxTurns         int       `json:"max_turns" bson:"max_turns"`
	Language         string    `json:"language" bson:"language"`
	AIRepliesEnabled bool      `json:"ai_replies_enabled" bson:"ai_replies_enabled"`
	LegacyAudioFile  string    `json:"legacy_audio_file" bson:"legacy_audio_file"`
	ReplyWaitCycles  int       `json:"reply_wait_cycles" bson:"reply_wait_cycles"`
	UpdatedAt        time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
	UpdatedBy        string    `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

// Provider is a settings backend.
type Provider interface {
	Get(ctx context.Context) (Settings, error)
	Put(ctx context.Context, s Settings) error
}

// ValidationError maps field names to problems.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid settings: " + strings.Join(parts, "; ")
}

// Defaults builds settings from the startup configuration.
func Defaults(cfg *env.Config) Settings {
	return Settings{
		PrivilegedCaller: cfg.PrivilegedCaller,
		FallbackNumber:   cfg.FallbackNumber,
		MaxTurns:         cfg.MaxTurns,
		Language:         cfg.Language,
		AIRepliesEnabled: cfg.AIRepliesEnabled,
		LegacyAudioFile:  cfg.LegacyAudioFile,
		ReplyWaitCycles:  cfg.ReplyWaitCycles,
	}
}

// Turns is MaxTurns clamped to [0, MaxTurnsLimit].
func (s Settings) Turns() int {
	return clamp(s.MaxTurns, 0, MaxTurnsLimit)
}

// WaitCycles is ReplyWaitCycles clamped to [0, MaxReplyWaitCycles].
func (s Settings) WaitCycles() int {
	return clamp(s.ReplyWaitCycles, 0, MaxReplyWaitCycles)
}

// Normalize rewrites phone numbers to E.164 and lowercases the language.
// Numbers that cannot be normalized are left as they are for Validate.
func (s Settings) Normalize(countryCode string) Settings {
	if n, err := validation.NormalizeE164(s.PrivilegedCaller, countryCode); err == nil {
		s.PrivilegedCaller = n
	}
	if n, err := validation.NormalizeE164(s.FallbackNumber, countryCode); err == nil {
		s.FallbackNumber = n
	}
	s.Language = strings.ToLower(strings.TrimSpace(s.Language))
	s.LegacyAudioFile = strings.TrimSpace(s.LegacyAudioFile)
	return s
}

// Validate checks a document before it is stored.
func (s Settings) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(s.PrivilegedCaller) != "" {
		if err := validation.ValidateE164(s.PrivilegedCaller); err != nil {
			fields["privileged_caller"] = err.Error()
		}
	}
	if err := validation.ValidateE164(s.FallbackNumber); err != nil {
		fields["fallback_number"] = err.Error()
	}
	if s.MaxTurns < 0 || s.MaxTurns > MaxTurnsLimit {
		fields["max_turns"] = fmt.Sprintf("must be between 0 and %d", MaxTurnsLimit)
	}
	if !supportedLanguages[s.Language] {
		fields["language"] = "must be one of sv, en"
	}
	if s.ReplyWaitCycles < 0 || s.ReplyWaitCycles > MaxReplyWaitCycles {
		fields["reply_wait_cycles"] = fmt.Sprintf("must be between 0 and %d", MaxReplyWaitCycles)
	}
	if s.LegacyAudioFile != "" && (filepath.Base(s.LegacyAudioFile) != s.LegacyAudioFile || !strings.HasSuffix(strings.ToLower(s.LegacyAudioFile), ".mp3")) {
		fields["legacy_audio_file"] = "must be a bare .mp3 file name"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
