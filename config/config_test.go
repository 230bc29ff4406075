package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
storage:
  path: /tmp/recap-test
sources:
  - id: north-feed
    url: https://example.org/feed
    entrySelector: li.entry
    textSelector: p.body
    linkSelector: a.permalink
    timeSelector: time
pipeline:
  fetchWindowHours: 24
  concurrency: 2
cluster:
  minSim: 0.80
  dedupSim: 0.95
telegram:
  botToken: 123456:secret-token
  chatId: "-100200300"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	// File values.
	assert.Equal(t, "/tmp/recap-test", cfg.Storage.Path)
	assert.Equal(t, 24, cfg.Pipeline.FetchWindowHours)
	assert.Equal(t, 2, cfg.Pipeline.Concurrency)
	assert.Equal(t, 0.80, cfg.Cluster.MinSim)
	assert.Equal(t, 0.95, cfg.Cluster.DedupSim)

	// Defaults survive where the file is silent.
	assert.Equal(t, 3, cfg.Pipeline.MaxRetryAttempts)
	assert.Equal(t, 5, cfg.Cluster.MaxGroups)
	assert.Equal(t, 6, cfg.Digest.MaxPerGroup)
	assert.Equal(t, "English", cfg.AI.TargetLanguage)
	assert.Equal(t, 4000, cfg.Telegram.MessageLimit)

	assert.Equal(t, []string{"north-feed"}, cfg.SourceIDs())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "storage: [unclosed"))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no sources", func(c *Config) { c.Sources = nil }},
		{"missing source id", func(c *Config) { c.Sources[0].ID = "" }},
		{"duplicate source id", func(c *Config) {
			c.Sources = append(c.Sources, c.Sources[0])
		}},
		{"missing source url", func(c *Config) { c.Sources[0].URL = "" }},
		{"missing selectors", func(c *Config) { c.Sources[0].EntrySelector = "" }},
		{"zero window", func(c *Config) { c.Pipeline.FetchWindowHours = 0 }},
		{"zero concurrency", func(c *Config) { c.Pipeline.Concurrency = 0 }},
		{"dedup below min sim", func(c *Config) { c.Cluster.DedupSim = c.Cluster.MinSim }},
		{"min sim out of range", func(c *Config) { c.Cluster.MinSim = 1.2 }},
		{"token without chat", func(c *Config) { c.Telegram.ChatID = "" }},
		{"zero message limit", func(c *Config) { c.Telegram.MessageLimit = 0 }},
		{"empty storage path", func(c *Config) { c.Storage.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, sampleYAML))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	p := PipelineConfig{FetchWindowHours: 48, CallTimeoutSecs: 30, BackoffBaseSecs: 1.5}
	assert.Equal(t, "48h0m0s", p.Window().String())
	assert.Equal(t, "30s", p.CallTimeout().String())
	assert.Equal(t, "1.5s", p.BackoffBase().String())
}

func TestSanitizedMasksSecrets(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	clean := cfg.Sanitized()
	assert.NotContains(t, clean.Telegram.BotToken, "secret-token")
	assert.Equal(t, "12****en", clean.Telegram.BotToken)

	// The original is untouched.
	assert.Equal(t, "123456:secret-token", cfg.Telegram.BotToken)

	empty := Config{}
	assert.Equal(t, "", empty.Sanitized().Telegram.BotToken)
}
