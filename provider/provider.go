// Package provider defines the text-generation boundary and its backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Response is a completed generation.
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Provider is a text-generation backend.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini", "anthropic", "mock").
	Name() string

	// Generate sends prompt and returns the generated text.
	Generate(ctx context.Context, prompt string) (*Response, error)
}

// ErrNotConfigured is returned by New when no API key is available.
var ErrNotConfigured = errors.New("provider not configured")

// Config selects and configures a backend.
type Config struct {
	Kind       string // "gemini" (default), "anthropic", "openai"
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int
	// HTTPClient is used by the anthropic and openai backends. The gemini
	// client manages its own authenticated transport.
	HTTPClient *http.Client
}

// New builds the provider cfg describes. A missing API key returns
// ErrNotConfigured so callers can run in degraded mode.
func New(ctx context.Context, cfg Config) (Provider, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	if kind == "" {
		kind = "gemini"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w: missing API key", kind, ErrNotConfigured)
	}
	switch kind {
	case "gemini", "google":
		p, err := NewGeminiProvider(ctx, GeminiConfig{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "anthropic":
		return NewAnthropicProvider(AnthropicConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			MaxTokens:  cfg.MaxTokens,
			HTTPClient: cfg.HTTPClient,
		}), nil
	case "openai":
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			MaxTokens:  cfg.MaxTokens,
			HTTPClient: cfg.HTTPClient,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Kind)
	}
}
