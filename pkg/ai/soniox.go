package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/client"
)

// SonioxTranscriber uses Soniox's synchronous file transcription.
type SonioxTranscriber struct {
	apiKey  string
	baseURL string
	http    *client.HTTPClient
	logger  *zap.Logger
}

func NewSonioxTranscriber(apiKey, baseURL string, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *SonioxTranscriber {
	if baseURL == "" {
		baseURL = "https://api.soniox.com/v1"
	}
	return &SonioxTranscriber{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client.NewHTTPClient("soniox", timeout, opts...),
		logger:  logger,
	}
}

func (s *SonioxTranscriber) Name() string { return "soniox" }

func (s *SonioxTranscriber) IsAvailable() bool { return s.apiKey != "" }

func (s *SonioxTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (*Transcript, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("soniox: %w", ErrUnavailable)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio data cannot be empty")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("audio_file", "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	if language != "" {
		if err := writer.WriteField("language_code", language); err != nil {
			return nil, fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}
	payload := body.Bytes()
	contentType := writer.FormDataContentType()

	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/transcribe_async", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-API-KEY", s.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var result struct {
		Text  string `json:"text"`
		Words []struct {
			Text       string   `json:"text"`
			Confidence *float64 `json:"confidence"`
		} `json:"words"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Words) == 0 {
		text := strings.TrimSpace(result.Text)
		return &Transcript{Text: text, Confidence: presenceConfidence(text)}, nil
	}

	words := make([]string, 0, len(result.Words))
	var sum float64
	scored := 0
	for _, w := range result.Words {
		if t := strings.TrimSpace(w.Text); t != "" {
			words = append(words, t)
		}
		if w.Confidence != nil {
			sum += *w.Confidence
			scored++
		}
	}
	text := strings.Join(words, " ")
	confidence := presenceConfidence(text)
	if scored > 0 {
		confidence = sum / float64(scored)
	}

	s.logger.Debug("Soniox transcription", zap.Int("words", len(words)), zap.Float64("confidence", confidence))
	return &Transcript{Text: text, Confidence: confidence}, nil
}

func presenceConfidence(text string) float64 {
	if text == "" {
		return 0
	}
	return 1
}
