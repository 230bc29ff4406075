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


// Package config loads and validates the application configuration
// from a YAML file. The configuration is constructed once at startup
// and passed by reference; no component reads the environment directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings required across the application.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Sources  []SourceConfig `yaml:"sources"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Cluster  ClusterConfig  `yaml:"cluster"`
	Digest   DigestConfig   `yaml:"digest"`
	AI       AIConfig       `yaml:"ai"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// StorageConfig describes the on-disk database location.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig describes one monitored source.
type SourceConfig struct {
	ID            string `yaml:"id"`
	URL           string `yaml:"url"`
	EntrySelector string `yaml:"entrySelector"`
	TextSelector  string `yaml:"textSelector"`
	LinkSelector  string `yaml:"linkSelector"`
	TimeSelector  string `yaml:"timeSelector"`
	TimeFormat    string `yaml:"timeFormat"`
}

// PipelineConfig holds the run-level orchestration knobs.
type PipelineConfig struct {
	FetchWindowHours int     `yaml:"fetchWindowHours"`
	Concurrency      int     `yaml:"concurrency"`
	CallTimeoutSecs  int     `yaml:"callTimeoutSecs"`
	MaxRetryAttempts int     `yaml:"maxRetryAttempts"`
	BackoffBaseSecs  float64 `yaml:"backoffBaseSecs"`
	ArtifactDir      string  `yaml:"artifactDir"`
}

// Window converts the configured hours to a duration.
func (p PipelineConfig) Window() time.Duration {
	return time.Duration(p.FetchWindowHours) * time.Hour
}

// CallTimeout converts the configured seconds to a duration.
func (p PipelineConfig) CallTimeout() time.Duration {
	return time.Duration(p.CallTimeoutSecs) * time.Second
}

// BackoffBase converts the configured seconds to a duration.
func (p PipelineConfig) BackoffBase() time.Duration {
	return time.Duration(p.BackoffBaseSecs * float64(time.Second))
}

// ClusterConfig holds the similarity thresholds.
type ClusterConfig struct {
	MinSim         float64 `yaml:"minSim"`
	DedupSim       float64 `yaml:"dedupSim"`
	MinClusterSize int     `yaml:"minClusterSize"`
	MaxGroups      int     `yaml:"maxGroups"`
}

// DigestConfig holds the document assembly bounds.
type DigestConfig struct {
	MaxPerGroup     int `yaml:"maxPerGroup"`
	OverviewBullets int `yaml:"overviewBullets"`
	MaxChars        int `yaml:"maxChars"`
}

// AIConfig describes the OpenAI-compatible service endpoints.
type AIConfig struct {
	EmbeddingHost  string `yaml:"embeddingHost"`
	ChatHost       string `yaml:"chatHost"`
	EmbeddingModel string `yaml:"embeddingModel"`
	ChatModel      string `yaml:"chatModel"`
	TargetLanguage string `yaml:"targetLanguage"`
	MaxInputChars  int    `yaml:"maxInputChars"`
}

// TelegramConfig wires the digest channel and optional operator chat.
type TelegramConfig struct {
	BotToken       string `yaml:"botToken"`
	ChatID         string `yaml:"chatId"`
	OperatorChatID string `yaml:"operatorChatId"`
	MessageLimit   int    `yaml:"messageLimit"`
}

// Default returns the configuration defaults applied before any file
// values.
func Default() Config {
	return Config{
		Storage: StorageConfig{Path: "data/recap"},
		Pipeline: PipelineConfig{
			FetchWindowHours: 48,
			Concurrency:      4,
			CallTimeoutSecs:  30,
			MaxRetryAttempts: 3,
			BackoffBaseSecs:  1,
			ArtifactDir:      "exports",
		},
		Cluster: ClusterConfig{
			MinSim:         0.85,
			DedupSim:       0.90,
			MinClusterSize: 2,
			MaxGroups:      5,
		},
		Digest: DigestConfig{
			MaxPerGroup:     6,
			OverviewBullets: 3,
			MaxChars:        12000,
		},
		AI: AIConfig{
			EmbeddingHost:  "http://localhost:11434/v1",
			ChatHost:       "http://localhost:11434/v1",
			EmbeddingModel: "embeddinggemma",
			ChatModel:      "qwen2.5:3b",
			TargetLanguage: "English",
			MaxInputChars:  6000,
		},
		Telegram: TelegramConfig{MessageLimit: 4000},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result.
func Load(path string) (*Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("config: storage.path is required")
	}
	if len(c.Sources) == 0 {
		return errors.New("config: at least one source is required")
	}
	seen := map[string]bool{}
	for i, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("config: sources[%d]: id is required", i)
		}
		if seen[src.ID] {
			return fmt.Errorf("config: duplicate source id %q", src.ID)
		}
		seen[src.ID] = true
		if src.URL == "" {
			return fmt.Errorf("config: source %q: url is required", src.ID)
		}
		if src.EntrySelector == "" || src.TextSelector == "" {
			return fmt.Errorf("config: source %q: entrySelector and textSelector are required", src.ID)
		}
	}
	if c.Pipeline.FetchWindowHours < 1 {
		return errors.New("config: pipeline.fetchWindowHours must be at least 1")
	}
	if c.Pipeline.Concurrency < 1 {
		return errors.New("config: pipeline.concurrency must be at least 1")
	}
	if c.Pipeline.MaxRetryAttempts < 1 {
		return errors.New("config: pipeline.maxRetryAttempts must be at least 1")
	}
	if c.Cluster.MinSim <= 0 || c.Cluster.MinSim >= 1 {
		return errors.New("config: cluster.minSim must be in (0, 1)")
	}
	if c.Cluster.DedupSim <= c.Cluster.MinSim || c.Cluster.DedupSim > 1 {
		return errors.New("config: cluster.dedupSim must be in (minSim, 1]")
	}
	if c.Digest.MaxChars < 1 {
		return errors.New("config: digest.maxChars must be positive")
	}
	if c.Telegram.MessageLimit < 1 {
		return errors.New("config: telegram.messageLimit must be positive")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New("config: telegram.chatId is required when botToken is set")
	}
	return nil
}

// SourceIDs returns the configured source identities in file order.
func (c *Config) SourceIDs() []string {
	ids := make([]string, len(c.Sources))
	for i, src := range c.Sources {
		ids[i] = src.ID
	}
	return ids
}

// Sanitized returns a copy safe for display: secrets are masked.
func (c *Config) Sanitized() Config {
	out := *c
	out.Telegram.BotToken = mask(c.Telegram.BotToken)
	return out
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:2] + "****" + secret[len(secret)-2:]
}
