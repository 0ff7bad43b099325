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

type GeminiResponder struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	http      *client.HTTPClient
	logger    *zap.Logger
}

func NewGeminiResponder(apiKey, model string, maxTokens int, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *GeminiResponder {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	if maxTokens <= 0 {
		maxTokens = 120
	}
	return &GeminiResponder{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		baseURL:   "https://generativelanguage.googleapis.com/v1beta",
		http:      client.NewHTTPClient("gemini", timeout, opts...),
		logger:    logger,
	}
}

func (p *GeminiResponder) Name() string { return "gemini" }

func (p *GeminiResponder) IsAvailable() bool { return p.apiKey != "" }

func (p *GeminiResponder) Respond(ctx context.Context, text, language string) (string, error) {
	if !p.IsAvailable() {
		return "", fmt.Errorf("gemini: %w", ErrUnavailable)
	}

	requestBody := map[string]interface{}{
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]string{{"text": SystemPrompt(language)}},
		},
		"contents": []map[string]interface{}{
			{"role": "user", "parts": []map[string]string{{"text": text}}},
		},
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": p.maxTokens,
			"temperature":     0.4,
		},
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, url.QueryEscape(p.apiKey))
	resp, err := p.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(resp.Body, &geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	return strings.TrimSpace(geminiResp.Candidates[0].Content.Parts[0].Text), nil
}
