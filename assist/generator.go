// Package assist builds prompts for task breakdowns, reminder emails and
// follow-up suggestions, and turns generation failures into visible
// placeholder content instead of errors.
package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/GoCodeAlone/taskpilot/internal/metrics"
	"github.com/GoCodeAlone/taskpilot/provider"
)

// ErrorPrefix starts every placeholder returned in place of generated text.
const ErrorPrefix = "Error:"

// MaxSuggestions caps the number of suggested follow-up tasks.
const MaxSuggestions = 5

const defaultSignature = "TaskPilot"

var errNotConfigured = errors.New("text generation is not configured; set GEMINI_API_KEY (or assistant.api_key) to enable AI features")

// Config tunes a Generator.
type Config struct {
	// Signature closes every reminder email.
	Signature string
	// Timeout bounds each generation call; zero means no extra bound.
	Timeout time.Duration
}

// Generator produces AI content for tasks. A Generator with a nil provider
// is valid and returns not-configured placeholders.
type Generator struct {
	provider  provider.Provider
	signature string
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// New creates a Generator. p may be nil; m may be nil.
func New(p provider.Provider, cfg Config, logger *slog.Logger, m *metrics.Metrics) *Generator {
	if cfg.Signature == "" {
		cfg.Signature = defaultSignature
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		provider:  p,
		signature: cfg.Signature,
		timeout:   cfg.Timeout,
		logger:    logger.With("component", "assist"),
		metrics:   m,
	}
}

// Configured reports whether a generation backend is available.
func (g *Generator) Configured() bool { return g.provider != nil }

// IsDegraded reports whether text is a placeholder rather than generated content.
func IsDegraded(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), ErrorPrefix)
}

// Breakdown asks for an analysis and 5-8 numbered subtasks of a task.
func (g *Generator) Breakdown(ctx context.Context, title, description string) string {
	text, err := g.generate(ctx, "breakdown", breakdownPrompt(title, description))
	if err != nil {
		return fmt.Sprintf("%s could not generate task breakdown: %v\n\nPlease check your API key and internet connection.", ErrorPrefix, err)
	}
	return text
}

// ReminderEmail asks for a short reminder email that mentions the deadline
// and priority and ends with the configured signature.
func (g *Generator) ReminderEmail(ctx context.Context, title, description, deadline, priority string) string {
	text, err := g.generate(ctx, "reminder_email", reminderPrompt(title, description, deadline, priority, g.signature))
	if err != nil {
		return fmt.Sprintf("%s could not generate email: %v", ErrorPrefix, err)
	}
	return text
}

// Suggestions asks for follow-up tasks based on completed task titles and
// returns at most MaxSuggestions items.
func (g *Generator) Suggestions(ctx context.Context, completed []string) []string {
	text, err := g.generate(ctx, "suggestions", suggestionsPrompt(completed))
	if err != nil {
		return []string{fmt.Sprintf("%s could not generate suggestions: %v", ErrorPrefix, err)}
	}
	items := ParseList(text)
	if len(items) > MaxSuggestions {
		items = items[:MaxSuggestions]
	}
	return items
}

// generate calls the provider. Errors are logged and counted here; the
// exported methods turn them into placeholder text.
func (g *Generator) generate(ctx context.Context, op, prompt string) (string, error) {
	if g.provider == nil {
		g.logger.Warn("generation skipped: provider not configured", "operation", op)
		g.metrics.Generation(op, metrics.OutcomeDegraded)
		return "", errNotConfigured
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.provider.Generate(ctx, prompt)
	if err != nil {
		g.logger.Error("generation failed", "operation", op, "provider", g.provider.Name(), "error", err)
		g.metrics.Generation(op, metrics.OutcomeDegraded)
		return "", err
	}
	g.logger.Debug("generation complete",
		"operation", op,
		"provider", g.provider.Name(),
		"duration", time.Since(start),
		"output_tokens", resp.Usage.OutputTokens,
	)
	g.metrics.Generation(op, metrics.OutcomeOK)
	return resp.Text, nil
}
