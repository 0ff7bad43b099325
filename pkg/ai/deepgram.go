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

// DeepgramTranscriber uses Deepgram's pre-recorded REST endpoint.
type DeepgramTranscriber struct {
	apiKey  string
	model   string
	baseURL string
	http    *client.HTTPClient
	logger  *zap.Logger
}

func NewDeepgramTranscriber(apiKey, model, baseURL string, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *DeepgramTranscriber {
	if model == "" {
		model = "nova-2"
	}
	if baseURL == "" {
		baseURL = "https://api.deepgram.com/v1"
	}
	return &DeepgramTranscriber{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client.NewHTTPClient("deepgram", timeout, opts...),
		logger:  logger,
	}
}

func (d *DeepgramTranscriber) Name() string { return "deepgram" }

func (d *DeepgramTranscriber) IsAvailable() bool { return d.apiKey != "" }

func (d *DeepgramTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (*Transcript, error) {
	if !d.IsAvailable() {
		return nil, fmt.Errorf("deepgram: %w", ErrUnavailable)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio data cannot be empty")
	}

	params := url.Values{}
	params.Set("model", d.model)
	params.Set("punctuate", "true")
	params.Set("smart_format", "true")
	if language != "" {
		params.Set("language", language)
	}
	endpoint := d.baseURL + "/listen?" + params.Encode()

	resp, err := d.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Token "+d.apiKey)
		req.Header.Set("Content-Type", "audio/wav")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var dgResp struct {
		Results struct {
			Channels []struct {
				Alternatives []struct {
					Transcript string  `json:"transcript"`
					Confidence float64 `json:"confidence"`
				} `json:"alternatives"`
			} `json:"channels"`
		} `json:"results"`
	}
	if err := json.Unmarshal(resp.Body, &dgResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(dgResp.Results.Channels) == 0 || len(dgResp.Results.Channels[0].Alternatives) == 0 {
		return &Transcript{}, nil
	}
	alt := dgResp.Results.Channels[0].Alternatives[0]
	return &Transcript{Text: strings.TrimSpace(alt.Transcript), Confidence: alt.Confidence}, nil
}
