// Package audio inspects the two formats the router handles: WAV recordings
// from the call platform and synthesized MP3 replies.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// ErrNoAudio is returned for input that decodes to zero samples.
var ErrNoAudio = errors.New("no audio frames")

type Info struct {
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// InspectMP3 decodes data fully and reports its length. go-mp3 always
// produces 16-bit stereo PCM.
func InspectMP3(data []byte) (*Info, error) {
	if len(data) == 0 {
		return nil, ErrNoAudio
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid mp3: %w", err)
	}

	n, err := io.Copy(io.Discard, dec)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3: %w", err)
	}
	if n == 0 || dec.SampleRate() <= 0 {
		return nil, ErrNoAudio
	}

	const bytesPerFrame = 4
	frames := n / bytesPerFrame
	return &Info{
		SampleRate: dec.SampleRate(),
		Channels:   2,
		Duration:   time.Duration(frames) * time.Second / time.Duration(dec.SampleRate()),
	}, nil
}
