// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package mock

import "github.com/poiesic/recap/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock embedder, translator, and synthesizer instances.
type MockProvider struct {
	embedder    *MockEmbedder
	translator  *MockTranslator
	synthesizer *MockSynthesizer
	closed      bool
}

// NewMockProvider creates a provider wired with default mocks.
//
// Returns ai.Provider interface since it is the primary entry point.
// Use GetMockEmbedder, GetMockTranslator, and GetMockSynthesizer to
// access the concrete types for assertions and behavior injection.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		embedder:    NewMockEmbedder(),
		translator:  NewMockTranslator(),
		synthesizer: NewMockSynthesizer(),
	}
}

// Embedder returns the mock embedding service.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Translator returns the mock translation service.
func (p *MockProvider) Translator() ai.Translator {
	return p.translator
}

// Synthesizer returns the mock summarization service.
func (p *MockProvider) Synthesizer() ai.Synthesizer {
	return p.synthesizer
}

// Close marks the provider as closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (p *MockProvider) IsClosed() bool {
	return p.closed
}

// GetMockEmbedder returns the concrete mock embedder for assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockTranslator returns the concrete mock translator for assertions.
func (p *MockProvider) GetMockTranslator() *MockTranslator {
	return p.translator
}

// GetMockSynthesizer returns the concrete mock synthesizer for assertions.
func (p *MockProvider) GetMockSynthesizer() *MockSynthesizer {
	return p.synthesizer
}
