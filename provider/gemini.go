package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultGeminiModel     = "gemini-flash-lite-latest"
	defaultGeminiMaxTokens = 2048
)

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	APIKey    string
	Model     string
	BaseURL   string // optional API endpoint override
	MaxTokens int
}

// GeminiProvider implements Provider using the Google Generative Language API.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// NewGeminiProvider creates a Gemini client. Call Close to release it.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultGeminiMaxTokens
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := client.GenerativeModel(cfg.Model)
	model.SetMaxOutputTokens(int32(cfg.MaxTokens))
	return &GeminiProvider{client: client, model: model, name: cfg.Model}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Close releases the underlying client connection.
func (p *GeminiProvider) Close() error { return p.client.Close() }

// Generate sends prompt as a single text part.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (*Response, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate with %s: %w", p.name, err)
	}
	return geminiResponse(resp)
}

// geminiResponse concatenates the text parts of the first candidate.
func geminiResponse(resp *genai.GenerateContentResponse) (*Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini: no candidates in response")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return nil, fmt.Errorf("gemini: candidate has no content (finish reason %v)", cand.FinishReason)
	}
	var text strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("gemini: empty response")
	}
	out := &Response{Text: text.String()}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}
