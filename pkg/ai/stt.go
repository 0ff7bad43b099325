package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/client"
)

// WhisperTranscriber handles Speech-to-Text using OpenAI Whisper
type WhisperTranscriber struct {
	apiKey  string
	model   string
	baseURL string
	http    *client.HTTPClient
	logger  *zap.Logger
}

func NewWhisperTranscriber(apiKey, model, baseURL string, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *WhisperTranscriber {
	if model == "" {
		model = "whisper-1"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &WhisperTranscriber{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    client.NewHTTPClient("whisper", timeout, opts...),
		logger:  logger,
	}
}

func (s *WhisperTranscriber) Name() string { return "whisper" }

func (s *WhisperTranscriber) IsAvailable() bool { return s.apiKey != "" }

func (s *WhisperTranscriber) Transcribe(ctx context.Context, audio []byte, language string) (*Transcript, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("whisper: %w", ErrUnavailable)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio data cannot be empty")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "recording.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	fields := map[string]string{
		"model":           s.model,
		"response_format": "verbose_json",
	}
	if language != "" {
		fields["language"] = language
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart body: %w", err)
	}
	payload := body.Bytes()
	contentType := writer.FormDataContentType()

	resp, err := s.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/transcriptions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var whisperResp struct {
		Text     string `json:"text"`
		Segments []struct {
			AvgLogprob   float64 `json:"avg_logprob"`
			NoSpeechProb float64 `json:"no_speech_prob"`
		} `json:"segments"`
	}
	if err := json.Unmarshal(resp.Body, &whisperResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	text := strings.TrimSpace(whisperResp.Text)
	confidence := presenceConfidence(text)
	if len(whisperResp.Segments) > 0 && text != "" {
		var sum float64
		for _, seg := range whisperResp.Segments {
			sum += math.Exp(seg.AvgLogprob) * (1 - seg.NoSpeechProb)
		}
		confidence = sum / float64(len(whisperResp.Segments))
	}

	return &Transcript{Text: text, Confidence: confidence}, nil
}
