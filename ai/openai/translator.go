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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/recap/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Translator implements ai.Translator using OpenAI-compatible chat APIs.
type Translator struct {
	client        llms.Model
	language      string
	maxInputChars int
	logger        *slog.Logger
}

// newTranslator is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTranslator(config *ai.Config) (*Translator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.ChatModel),
	)
	if err != nil {
		return nil, err
	}

	return &Translator{
		client:        client,
		language:      config.TargetLanguage,
		maxInputChars: config.MaxInputChars,
		logger:        slog.Default().With("component", "openai-translator"),
	}, nil
}

// NewTranslator creates a new translator using the provided configuration.
//
// Returns ai.Translator interface to enforce abstraction.
func NewTranslator(config *ai.Config) (ai.Translator, error) {
	return newTranslator(config)
}

// Translate renders the text in the target language.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	text = collapseWhitespace(text)
	text = truncateAtWord(text, t.maxInputChars)
	if text == "" {
		return "", nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildTranslationPrompt(t.language))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(text)},
		},
	}

	response, err := t.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		t.logger.Error("failed to translate text", "length", len(text), "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrTranslationUnavailable, err)
	}

	if len(response.Choices) < 1 {
		t.logger.Warn("translator returned no choices")
		return "", fmt.Errorf("%w: empty response", ai.ErrTranslationUnavailable)
	}

	result := strings.TrimSpace(response.Choices[0].Content)
	if result == "" {
		return "", fmt.Errorf("%w: blank translation", ai.ErrTranslationUnavailable)
	}

	t.logger.Debug("translated text", "in", len(text), "out", len(result))
	return result, nil
}
