package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "qwen2.5:3b", cfg.ChatModel)
	assert.Equal(t, "English", cfg.TargetLanguage)
	assert.Equal(t, 6000, cfg.MaxInputChars)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://localhost:11434/v1", cfg.ChatHost)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.ChatHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithChatHost("http://chat:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://chat:9090/v1", cfg.ChatHost)
	})

	t.Run("with custom models and language", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("text-embedding-3-small"),
			WithChatModel("gpt-4o-mini"),
			WithTargetLanguage("German"),
			WithMaxInputChars(2000),
		)

		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
		assert.Equal(t, "German", cfg.TargetLanguage)
		assert.Equal(t, 2000, cfg.MaxInputChars)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, ChatHost: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.ChatHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		cases := []*Config{
			{ChatHost: "h", EmbeddingModel: "m", ChatModel: "m", TargetLanguage: "English", MaxInputChars: 1},
			{EmbeddingHost: "h", EmbeddingModel: "m", ChatModel: "m", TargetLanguage: "English", MaxInputChars: 1},
			{EmbeddingHost: "h", ChatHost: "h", ChatModel: "m", TargetLanguage: "English", MaxInputChars: 1},
			{EmbeddingHost: "h", ChatHost: "h", EmbeddingModel: "m", TargetLanguage: "English", MaxInputChars: 1},
			{EmbeddingHost: "h", ChatHost: "h", EmbeddingModel: "m", ChatModel: "m", MaxInputChars: 1},
			{EmbeddingHost: "h", ChatHost: "h", EmbeddingModel: "m", ChatModel: "m", TargetLanguage: "English"},
		}
		for _, cfg := range cases {
			assert.Error(t, cfg.Validate())
		}
	})

	t.Run("validate normalizes hosts", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://localhost:9100"))
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:9100/v1", cfg.EmbeddingHost)
	})
}
