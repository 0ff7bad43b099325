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

type AnthropicResponder struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	http      *client.HTTPClient
	logger    *zap.Logger
}

func NewAnthropicResponder(apiKey, model string, maxTokens int, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *AnthropicResponder {
	if model == "" {
		model = "claude-3-5-haiku-20241022"
	}
	if maxTokens <= 0 {
		maxTokens = 120
	}
	return &AnthropicResponder{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		baseURL:   "https://api.anthropic.com/v1",
		http:      client.NewHTTPClient("anthropic", timeout, opts...),
		logger:    logger,
	}
}

func (p *AnthropicResponder) Name() string { return "anthropic" }

func (p *AnthropicResponder) IsAvailable() bool { return p.apiKey != "" }

func (p *AnthropicResponder) Respond(ctx context.Context, text, language string) (string, error) {
	if !p.IsAvailable() {
		return "", fmt.Errorf("anthropic: %w", ErrUnavailable)
	}

	requestBody := map[string]interface{}{
		"model":      p.model,
		"max_tokens": p.maxTokens,
		"system":     SystemPrompt(language),
		"messages": []map[string]string{
			{"role": "user", "content": text},
		},
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", p.apiKey)
		req.Header.Set("anthropic-version", "2023-06-01")
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var anthropicResp struct {
		Content []struct {
			Text string `json:"text"`
			Type string `json:"type"`
		} `json:"content"`
	}
	if err := json.Unmarshal(resp.Body, &anthropicResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	for _, block := range anthropicResp.Content {
		if block.Type == "text" || block.Type == "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("no content in response")
}
