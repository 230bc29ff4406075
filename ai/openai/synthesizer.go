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

// Synthesizer implements ai.Synthesizer using OpenAI-compatible chat APIs.
type Synthesizer struct {
	client        llms.Model
	language      string
	maxInputChars int
	logger        *slog.Logger
}

// newSynthesizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newSynthesizer(config *ai.Config) (*Synthesizer, error) {
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

	return &Synthesizer{
		client:        client,
		language:      config.TargetLanguage,
		maxInputChars: config.MaxInputChars,
		logger:        slog.Default().With("component", "openai-synthesizer"),
	}, nil
}

// NewSynthesizer creates a new synthesizer using the provided configuration.
//
// Returns ai.Synthesizer interface to enforce abstraction.
func NewSynthesizer(config *ai.Config) (ai.Synthesizer, error) {
	return newSynthesizer(config)
}

// Summarize condenses several related texts into one factual statement.
func (s *Synthesizer) Summarize(ctx context.Context, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", fmt.Errorf("%w: no input texts", ai.ErrSynthesisUnavailable)
	}

	// Budget the input limit across the group so every member is
	// represented even when individual texts are long.
	perText := s.maxInputChars / len(texts)
	if perText < 200 {
		perText = 200
	}
	parts := make([]string, 0, len(texts))
	for _, text := range texts {
		text = collapseWhitespace(text)
		text = truncateAtWord(text, perText)
		if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: no usable input texts", ai.ErrSynthesisUnavailable)
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(buildSynthesisPrompt(s.language))},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(strings.Join(parts, "\n---\n"))},
		},
	}

	response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0))
	if err != nil {
		s.logger.Error("failed to summarize group", "count", len(texts), "err", err)
		return "", fmt.Errorf("%w: %w", ai.ErrSynthesisUnavailable, err)
	}

	if len(response.Choices) < 1 {
		s.logger.Warn("synthesizer returned no choices")
		return "", fmt.Errorf("%w: empty response", ai.ErrSynthesisUnavailable)
	}

	result := strings.TrimSpace(response.Choices[0].Content)
	if result == "" {
		return "", fmt.Errorf("%w: blank summary", ai.ErrSynthesisUnavailable)
	}

	s.logger.Debug("summarized group", "count", len(texts), "out", len(result))
	return result, nil
}
