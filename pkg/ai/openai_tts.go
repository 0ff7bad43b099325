package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/client"
)

// OpenAISynthesizer handles Text-to-Speech using the OpenAI speech API.
// The voice id is one of OpenAI's named voices (alloy, nova, shimmer, ...).
type OpenAISynthesizer struct {
	apiKey  string
	model   string
	baseURL string
	http    *client.HTTPClient
	logger  *zap.Logger
}

func NewOpenAISynthesizer(apiKey, model string, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *OpenAISynthesizer {
	if model == "" {
		model = "tts-1"
	}
	return &OpenAISynthesizer{
		apiKey:  apiKey,
		model:   model,
		baseURL: "https://api.openai.com/v1",
		http:    client.NewHTTPClient("openai-tts", timeout, opts...),
		logger:  logger,
	}
}

func (s *OpenAISynthesizer) Name() string { return "openai" }

func (s *OpenAISynthesizer) IsAvailable() bool { return s.apiKey != "" }

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("openai tts: %w", ErrUnavailable)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if voiceID == "" {
		voiceID = "alloy"
	}

	jsonData, err := json.Marshal(map[string]interface{}{
		"model":           s.model,
		"input":           text,
		"voice":           voiceID,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/speech", bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
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
