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

// ChatResponder talks to any OpenAI-compatible chat completions API.
// DeepSeek and OpenAI both use it with different base URLs.
type ChatResponder struct {
	name      string
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	http      *client.HTTPClient
	logger    *zap.Logger
}

func NewChatResponder(name, apiKey, baseURL, model string, maxTokens int, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *ChatResponder {
	if maxTokens <= 0 {
		maxTokens = 120
	}
	return &ChatResponder{
		name:      name,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      client.NewHTTPClient(name, timeout, opts...),
		logger:    logger,
	}
}

// NewDeepSeekResponder points a ChatResponder at DeepSeek.
func NewDeepSeekResponder(apiKey, baseURL, model string, maxTokens int, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *ChatResponder {
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}
	if model == "" {
		model = "deepseek-chat"
	}
	return NewChatResponder("deepseek", apiKey, baseURL, model, maxTokens, timeout, logger, opts...)
}

// NewOpenAIResponder points a ChatResponder at OpenAI.
func NewOpenAIResponder(apiKey, model string, maxTokens int, timeout time.Duration, logger *zap.Logger, opts ...client.Option) *ChatResponder {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return NewChatResponder("openai", apiKey, "https://api.openai.com/v1", model, maxTokens, timeout, logger, opts...)
}

func (p *ChatResponder) Name() string { return p.name }

func (p *ChatResponder) IsAvailable() bool { return p.apiKey != "" }

func (p *ChatResponder) Respond(ctx context.Context, text, language string) (string, error) {
	if !p.IsAvailable() {
		return "", fmt.Errorf("%s: %w", p.name, ErrUnavailable)
	}

	requestBody := map[string]interface{}{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "system", "content": SystemPrompt(language)},
			{"role": "user", "content": text},
		},
		"max_tokens":  p.maxTokens,
		"temperature": 0.4,
	}
	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		return req, nil
	})
	if err != nil {
		return "", err
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(chatResp.Choices[0].Message.Content), nil
}
