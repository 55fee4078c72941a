// Package mock provides a scripted text-generation provider for testing.
package mock

import (
	"context"
	"sync"

	"github.com/GoCodeAlone/taskpilot/provider"
)

const defaultResponse = "Task acknowledged."

// MockProvider implements provider.Provider for testing.
// It returns scripted responses in order and records every prompt it receives.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	idx       int
	prompts   []string
}

// New creates a MockProvider that cycles through the given responses.
func New(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// Failing creates a MockProvider whose every call returns err.
func Failing(err error) *MockProvider {
	return &MockProvider{err: err}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return "mock" }

// Generate returns the next scripted response, cycling through the queue.
func (m *MockProvider) Generate(ctx context.Context, prompt string) (*provider.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &provider.Response{Text: defaultResponse}, nil
	}
	resp := m.responses[m.idx%len(m.responses)]
	m.idx++
	return &provider.Response{
		Text:  resp,
		Usage: provider.Usage{InputTokens: len(prompt), OutputTokens: len(resp)},
	}, nil
}

// Prompts returns a copy of the prompts received so far.
func (m *MockProvider) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}
