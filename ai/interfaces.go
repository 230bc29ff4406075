package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Translator normalizes collected text into the digest language.
// Implementations must be thread-safe for concurrent use.
type Translator interface {
	// Translate returns the text rendered in the target language. Text
	// already in the target language is returned cleaned up but otherwise
	// unchanged. Returns an error if translation fails.
	Translate(ctx context.Context, text string) (string, error)
}

// Synthesizer produces a single neutral statement covering a group of
// related texts. Implementations must be thread-safe for concurrent use.
type Synthesizer interface {
	// Summarize condenses the given texts, which all describe the same
	// underlying event, into one short factual statement.
	// Returns an error if synthesis fails.
	Summarize(ctx context.Context, texts []string) (string, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management. A provider creates and manages Embedder,
// Translator, and Synthesizer instances, ensuring they share
// configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Translator returns the text normalization service.
	// The returned Translator is safe for concurrent use.
	Translator() Translator

	// Synthesizer returns the group summarization service.
	// The returned Synthesizer is safe for concurrent use.
	Synthesizer() Synthesizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
