package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/troikatech/call-router/pkg/ai"
)

type fakeFetcher struct {
	data  []byte
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls.Add(1)
	return f.data, f.err
}

type fakeSTT struct {
	text       string
	confidence float64
	err        error
}

func (f *fakeSTT) Name() string      { return "fake-stt" }
func (f *fakeSTT) IsAvailable() bool { return true }
func (f *fakeSTT) Transcribe(ctx context.Context, audio []byte, language string) (*ai.Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ai.Transcript{Text: f.text, Confidence: f.confidence}, nil
}

type fakeLLM struct {
	reply string
	err   error
	// block ignores ctx and waits for release, like a hung vendor call.
	block chan struct{}

	mu     sync.Mutex
	inputs []string
}

func (f *fakeLLM) Name() string      { return "fake-llm" }
func (f *fakeLLM) IsAvailable() bool { return true }
func (f *fakeLLM) Respond(ctx context.Context, text, language string) (string, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, text)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	return f.reply, f.err
}

func (f *fakeLLM) lastInput() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inputs) == 0 {
		return ""
	}
	return f.inputs[len(f.inputs)-1]
}

type fakeTTS struct {
	audio []byte
	err   error
	voice string
}

func (f *fakeTTS) Name() string      { return "fake-tts" }
func (f *fakeTTS) IsAvailable() bool { return true }
func (f *fakeTTS) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	f.voice = voiceID
	return f.audio, f.err
}
