// Package ai holds the vendor adapters for the three turn stages. Each stage
// is a small capability interface; adapters are picked by configuration.
package ai

import (
	"context"
	"errors"

	"github.com/troikatech/call-router/pkg/client"
)

// ErrTimeout is wrapped by every adapter error caused by a deadline.
var ErrTimeout = client.ErrTimeout

// ErrUnavailable means the adapter has no credentials configured.
var ErrUnavailable = errors.New("provider not configured")

// Transcript is the STT result. Confidence is in [0,1]; vendors that do not
// report one return 1 for non-empty text.
type Transcript struct {
	Text       string
	Confidence float64
}

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Name() string
	IsAvailable() bool
	Transcribe(ctx context.Context, audio []byte, language string) (*Transcript, error)
}

// Responder produces a short spoken reply to the caller's words.
type Responder interface {
	Name() string
	IsAvailable() bool
	Respond(ctx context.Context, text, language string) (string, error)
}

// Synthesizer converts reply text to MP3 audio with a fixed voice.
type Synthesizer interface {
	Name() string
	IsAvailable() bool
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// IsTimeout reports whether err came from a vendor deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
