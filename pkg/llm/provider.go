// Copyright 2026 AustinWp
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultTimeout bounds a single chat call end to end.
const DefaultTimeout = 30 * time.Second

// Provider defines the interface for chat-completion backends.
type Provider interface {
	// Chat runs one chat completion and returns the assistant reply.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Name returns the provider identifier.
	Name() string
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest represents a chat completion request.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// ChatResponse contains the chat completion response.
type ChatResponse struct {
	Content      string        `json:"content"`
	Model        string        `json:"model"`
	PromptTokens int           `json:"prompt_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	TotalTokens  int           `json:"total_tokens,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// Config holds configuration for creating providers.
type Config struct {
	// Provider type: "deepseek", "openai", "mock"
	Provider string `json:"provider"`

	// BaseURL overrides the API endpoint
	BaseURL string `json:"base_url,omitempty"`

	// APIKey for the backend; falls back to the provider's
	// environment variable when empty
	APIKey string `json:"api_key,omitempty"`

	// Model to use if not specified in requests
	Model string `json:"model,omitempty"`

	// Timeout for API requests
	Timeout time.Duration `json:"timeout,omitempty"`
}

// NewProvider creates a Provider based on configuration.
// Supported types: "deepseek", "openai", "mock"
//
// Environment variables:
//   - DEEPSEEK_API_KEY: DeepSeek API key
//   - OPENAI_API_KEY: OpenAI API key
//   - OPENAI_BASE_URL: OpenAI-compatible API URL
func NewProvider(cfg Config) (Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch strings.ToLower(cfg.Provider) {
	case "deepseek", "":
		return newChatProvider("deepseek", cfg, backendDefaults{
			baseURL: "https://api.deepseek.com",
			keyEnv:  "DEEPSEEK_API_KEY",
			model:   "deepseek-chat",
		}), nil
	case "openai", "openai-compatible":
		base := os.Getenv("OPENAI_BASE_URL")
		if base == "" {
			base = "https://api.openai.com/v1"
		}
		return newChatProvider("openai", cfg, backendDefaults{
			baseURL: base,
			keyEnv:  "OPENAI_API_KEY",
			model:   "gpt-4o-mini",
		}), nil
	case "mock", "test":
		return &MockProvider{model: cfg.Model}, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider type: %s (supported: deepseek, openai, mock)", cfg.Provider)
	}
}

type backendDefaults struct {
	baseURL string
	keyEnv  string
	model   string
}

// chatProvider talks to any OpenAI-style chat completions endpoint.
type chatProvider struct {
	name         string
	baseURL      string
	apiKey       string
	defaultModel string
	client       *http.Client
}

func newChatProvider(name string, cfg Config, def backendDefaults) *chatProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = def.baseURL
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(def.keyEnv)
	}
	model := cfg.Model
	if model == "" {
		model = def.model
	}
	return &chatProvider{
		name:         name,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: model,
		client:       &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *chatProvider) Name() string { return p.name }

func (p *chatProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%s: API key not configured", p.name)
	}
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	payload := map[string]any{
		"model":    model,
		"messages": req.Messages,
	}
	if req.MaxTokens > 0 {
		payload["max_tokens"] = req.MaxTokens
	}
	if req.Temperature > 0 {
		payload["temperature"] = req.Temperature
	}

	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/chat/completions", strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	start := time.Now()
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s chat: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s chat error (status %d): %s", p.name, resp.StatusCode, string(bodyBytes))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Model string `json:"model"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices", p.name)
	}

	return &ChatResponse{
		Content:      result.Choices[0].Message.Content,
		Model:        result.Model,
		PromptTokens: result.Usage.PromptTokens,
		OutputTokens: result.Usage.CompletionTokens,
		TotalTokens:  result.Usage.TotalTokens,
		Duration:     time.Since(start),
	}, nil
}

// MockProvider is a test provider that returns predictable responses.
type MockProvider struct {
	model    string
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if p.ChatFunc != nil {
		return p.ChatFunc(ctx, req)
	}
	lastMsg := ""
	if len(req.Messages) > 0 {
		lastMsg = req.Messages[len(req.Messages)-1].Content
	}
	return &ChatResponse{
		Content:      fmt.Sprintf("[mock] Response to: %.50s", lastMsg),
		Model:        "mock-model",
		PromptTokens: 50,
		OutputTokens: 20,
		TotalTokens:  70,
		Duration:     10 * time.Millisecond,
	}, nil
}
