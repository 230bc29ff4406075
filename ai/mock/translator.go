package mock

import (
	"context"
	"strings"
)

// MockTranslator is a test double for ai.Translator.
// It allows custom behavior injection via function fields.
type MockTranslator struct {
	// TranslateFunc is called by Translate if set.
	// If nil, the input is returned with whitespace collapsed.
	TranslateFunc func(ctx context.Context, text string) (string, error)

	callCount int
}

// NewMockTranslator creates a mock translator with default passthrough behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

// Translate returns the text with whitespace collapsed, standing in for
// a text that needed no actual translation.
func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	m.callCount++

	if m.TranslateFunc != nil {
		return m.TranslateFunc(ctx, text)
	}

	return strings.Join(strings.Fields(text), " "), nil
}

// CallCount returns the number of times Translate was called.
func (m *MockTranslator) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockTranslator) Reset() {
	m.callCount = 0
	m.TranslateFunc = nil
}
