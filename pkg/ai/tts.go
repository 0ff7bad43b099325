package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/client"
)

// ElevenLabsSynthesizer handles Text-to-Speech using ElevenLabs
type ElevenLabsSynthesizer struct {
	apiKey       string
	modelID      string
	outputFormat string
	baseURL      string
	http         *client.HTTPClient
	logger       *zap.Logger
}

func NewElevenLabsSynthesizer(apiKey, modelID, outputFormat, baseURL string, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *ElevenLabsSynthesizer {
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}
	if outputFormat == "" {
		outputFormat = "mp3_44100_128"
	}
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	return &ElevenLabsSynthesizer{
		apiKey:       apiKey,
		modelID:      modelID,
		outputFormat: outputFormat,
		baseURL:      strings.TrimRight(baseURL, "/"),
		http:         client.NewHTTPClient("elevenlabs", timeout, opts...),
		logger:       logger,
	}
}

func (s *ElevenLabsSynthesizer) Name() string { return "elevenlabs" }

func (s *ElevenLabsSynthesizer) IsAvailable() bool { return s.apiKey != "" }

func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("elevenlabs: %w", ErrUnavailable)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if voiceID == "" {
		return nil, fmt.Errorf("voice id cannot be empty")
	}

	requestBody := map[string]interface{}{
		"text":     text,
		"model_id": s.modelID,
		"voice_settings": map[string]interface{}{
			"stability":        0.6,
			"similarity_boost": 0.75,
		},
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s", s.baseURL, url.PathEscape(voiceID), url.QueryEscape(s.outputFormat))
	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("xi-api-key", s.apiKey)
		req.Header.Set("Accept", "audio/mpeg")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("no audio data received")
	}

	return resp.Body, nil
}
