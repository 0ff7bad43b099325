package ai

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type stubResponder struct {
	name      string
	available bool
	reply     string
	err       error
	calls     int
}

func (s *stubResponder) Name() string      { return s.name }
func (s *stubResponder) IsAvailable() bool { return s.available }
func (s *stubResponder) Respond(ctx context.Context, text, language string) (string, error) {
	s.calls++
	return s.reply, s.err
}

func TestManagerFallsBackInOrder(t *testing.T) {
	first := &stubResponder{name: "first", available: true, err: errors.New("boom")}
	skipped := &stubResponder{name: "skipped", available: false, reply: "never"}
	second := &stubResponder{name: "second", available: true, reply: "Hej."}

	m := NewManager([]Responder{first, skipped, second}, zap.NewNop())
	reply, err := m.Respond(context.Background(), "hej", "sv")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply != "Hej." {
		t.Errorf("reply = %q", reply)
	}
	if first.calls != 1 || skipped.calls != 0 || second.calls != 1 {
		t.Errorf("calls = %d/%d/%d", first.calls, skipped.calls, second.calls)
	}
	if m.Name() != "first" {
		t.Errorf("Name() = %q", m.Name())
	}
}

func TestManagerEmptyReplyIsFailure(t *testing.T) {
	m := NewManager([]Responder{&stubResponder{name: "a", available: true}}, zap.NewNop())
	if _, err := m.Respond(context.Background(), "hej", "sv"); err == nil {
		t.Fatal("expected error for empty reply")
	}
}

func TestManagerNoProviders(t *testing.T) {
	m := NewManager(nil, zap.NewNop())
	if m.IsAvailable() {
		t.Fatal("expected unavailable")
	}
	_, err := m.Respond(context.Background(), "hej", "sv")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestManagerStopsWhenContextDone(t *testing.T) {
	a := &stubResponder{name: "a", available: true, reply: "x"}
	m := NewManager([]Responder{a}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Respond(ctx, "hej", "sv"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if a.calls != 0 {
		t.Errorf("provider called after cancel")
	}
}

func TestNewStack(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
		ready   bool
	}{
		{
			name: "defaults without keys",
			opts: Options{LLMProviders: []string{"deepseek"}},
		},
		{
			name: "fully configured",
			opts: Options{
				STTProvider:       "soniox",
				SonioxAPIKey:      "s",
				LLMProviders:      []string{"deepseek", "anthropic"},
				DeepSeekAPIKey:    "d",
				TTSProvider:       "elevenlabs",
				ElevenLabsAPIKey:  "e",
				ElevenLabsVoiceID: "voice",
			},
			ready: true,
		},
		{name: "unknown stt", opts: Options{STTProvider: "nope"}, wantErr: true},
		{name: "unknown llm", opts: Options{LLMProviders: []string{"nope"}}, wantErr: true},
		{name: "unknown tts", opts: Options{TTSProvider: "nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewStack(tt.opts, zap.NewNop())
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewStack() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if s.Ready() != tt.ready {
				t.Errorf("Ready() = %v, want %v", s.Ready(), tt.ready)
			}
			if tt.ready && s.VoiceID != "voice" {
				t.Errorf("VoiceID = %q", s.VoiceID)
			}
		})
	}
}
