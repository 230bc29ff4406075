package mock

import (
	"context"
	"strings"
)

// MockSynthesizer is a test double for ai.Synthesizer.
// It allows custom behavior injection via function fields.
type MockSynthesizer struct {
	// SummarizeFunc is called by Summarize if set.
	// If nil, the first text's first sentence is returned.
	SummarizeFunc func(ctx context.Context, texts []string) (string, error)

	callCount int
}

// NewMockSynthesizer creates a mock synthesizer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Summarize returns the first sentence of the first text, which is a
// reasonable stand-in for a condensed statement in tests.
func (m *MockSynthesizer) Summarize(ctx context.Context, texts []string) (string, error) {
	m.callCount++

	if m.SummarizeFunc != nil {
		return m.SummarizeFunc(ctx, texts)
	}

	if len(texts) == 0 {
		return "", nil
	}
	first := strings.TrimSpace(texts[0])
	if idx := strings.IndexAny(first, ".!?"); idx >= 0 {
		return first[:idx+1], nil
	}
	return first, nil
}

// CallCount returns the number of times Summarize was called.
func (m *MockSynthesizer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockSynthesizer) Reset() {
	m.callCount = 0
	m.SummarizeFunc = nil
}
