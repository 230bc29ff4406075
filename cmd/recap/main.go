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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/recap"
	"github.com/poiesic/recap/ai"
	"github.com/poiesic/recap/cluster"
	"github.com/poiesic/recap/config"
	"github.com/poiesic/recap/core"
	"github.com/poiesic/recap/digest"
	"github.com/poiesic/recap/pipeline"
	"github.com/poiesic/recap/publish"
	"github.com/poiesic/recap/source/web"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func main() {
	app := &cli.App{
		Name:  "recap",
		Usage: "Semantic digest engine for monitored message sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Execute one full pipeline pass: fetch, translate, embed, cluster, publish",
				Action: runCommand,
			},
			{
				Name:   "fetch",
				Usage:  "Fetch and store items from the configured sources without processing them",
				Action: fetchCommand,
			},
			{
				Name:   "digest",
				Usage:  "Cluster already-embedded items and print the rendered digest",
				Action: digestCommand,
			},
			{
				Name:   "publish",
				Usage:  "Send a rendered digest file to the configured Telegram channel",
				Action: publishCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the rendered Markdown document",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Split the document and report part counts without sending",
					},
				},
			},
			{
				Name:   "check-config",
				Usage:  "Load and validate the configuration, printing the effective values",
				Action: checkConfigCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*recap.Store, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithChatHost(cfg.AI.ChatHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithChatModel(cfg.AI.ChatModel),
		ai.WithTargetLanguage(cfg.AI.TargetLanguage),
		ai.WithMaxInputChars(cfg.AI.MaxInputChars),
	)
	return recap.NewStore(cfg.Storage.Path, recap.WithAIConfig(aiConfig))
}

func buildScanner(cfg *config.Config) *web.Scanner {
	pages := make(map[string]web.Page, len(cfg.Sources))
	for _, src := range cfg.Sources {
		pages[src.ID] = web.Page{
			URL:           src.URL,
			EntrySelector: src.EntrySelector,
			TextSelector:  src.TextSelector,
			LinkSelector:  src.LinkSelector,
			TimeSelector:  src.TimeSelector,
			TimeFormat:    src.TimeFormat,
		}
	}
	return web.NewScanner(nil, pages)
}

func buildPublisher(cfg *config.Config) (*publish.TelegramPublisher, error) {
	if cfg.Telegram.BotToken == "" {
		return nil, fmt.Errorf("telegram.botToken is required for publishing")
	}
	return publish.NewTelegramPublisher(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
		publish.WithMessageLimit(cfg.Telegram.MessageLimit))
}

func runCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	cache, err := store.NewVectorCache()
	if err != nil {
		return fmt.Errorf("failed to create vector cache: %w", err)
	}

	engine, err := cluster.NewEngine(cluster.Config{
		MinSim:         cfg.Cluster.MinSim,
		DedupSim:       cfg.Cluster.DedupSim,
		MinClusterSize: cfg.Cluster.MinClusterSize,
		MaxGroups:      cfg.Cluster.MaxGroups,
	})
	if err != nil {
		return fmt.Errorf("invalid cluster configuration: %w", err)
	}

	builder, err := digest.NewBuilder(digest.Config{
		MaxPerGroup:     cfg.Digest.MaxPerGroup,
		OverviewBullets: cfg.Digest.OverviewBullets,
		MaxChars:        cfg.Digest.MaxChars,
	}, store.Provider().Synthesizer())
	if err != nil {
		return fmt.Errorf("invalid digest configuration: %w", err)
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		return err
	}

	// Failure notifications go to the operator chat when one is
	// configured, otherwise the orchestrator falls back to logging.
	var notifier publish.Notifier
	if cfg.Telegram.OperatorChatID != "" {
		operator, err := publish.NewTelegramPublisher(cfg.Telegram.BotToken, cfg.Telegram.OperatorChatID,
			publish.WithMessageLimit(cfg.Telegram.MessageLimit))
		if err != nil {
			return fmt.Errorf("failed to create operator publisher: %w", err)
		}
		notifier = publish.NewTelegramNotifier(operator)
	}

	orch, err := pipeline.NewOrchestrator(
		store.ItemRepository(),
		cache,
		store.Provider(),
		buildScanner(cfg),
		engine,
		builder,
		publisher,
		notifier,
		pipeline.Config{
			Sources:     cfg.SourceIDs(),
			Window:      cfg.Pipeline.Window(),
			Concurrency: cfg.Pipeline.Concurrency,
			CallTimeout: cfg.Pipeline.CallTimeout(),
			Retry: pipeline.RetryPolicy{
				MaxAttempts: cfg.Pipeline.MaxRetryAttempts,
				BaseDelay:   cfg.Pipeline.BackoffBase(),
				MaxDelay:    30 * time.Second,
				Jitter:      0.2,
			},
			ArtifactDir: cfg.Pipeline.ArtifactDir,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	report, err := orch.Run(ctx)
	printReport(report)
	return err
}

func fetchCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	scanner := buildScanner(cfg)
	since := time.Now().UTC().Add(-cfg.Pipeline.Window())

	var fetched, stored, skipped int
	for _, sourceID := range cfg.SourceIDs() {
		raw, err := scanner.Fetch(ctx, sourceID, since)
		if err != nil {
			slog.Warn("skipping unavailable source", "source", sourceID, "err", err)
			skipped++
			continue
		}
		for _, r := range raw {
			fetched++
			item := &core.Item{
				Key:       core.ItemKey{SourceID: sourceID, ItemID: r.ItemID},
				Timestamp: r.Timestamp,
				RawText:   r.Text,
				Link:      r.Link,
			}
			inserted, err := store.ItemRepository().Upsert(ctx, item)
			if err != nil {
				slog.Warn("dropping item", "source", sourceID, "err", err)
				continue
			}
			if inserted {
				stored++
			}
		}
	}

	fmt.Fprintf(os.Stderr, "Fetched: %d\n", fetched)
	fmt.Fprintf(os.Stderr, "Stored: %d\n", stored)
	fmt.Fprintf(os.Stderr, "Skipped sources: %d\n", skipped)
	return nil
}

func digestCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	cache, err := store.NewVectorCache()
	if err != nil {
		return fmt.Errorf("failed to create vector cache: %w", err)
	}

	until := time.Now().UTC()
	since := until.Add(-cfg.Pipeline.Window())
	items, err := store.ItemRepository().SelectWindow(ctx, since, until, core.StageEmbedded)
	if err != nil {
		return fmt.Errorf("failed to select items: %w", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "No embedded items in window")
		return nil
	}

	keys := make([]core.ItemKey, len(items))
	for i, item := range items {
		keys[i] = item.Key
	}
	vectors, err := cache.GetBatch(ctx, keys)
	if err != nil {
		return fmt.Errorf("failed to load vectors: %w", err)
	}

	members := make([]*cluster.Member, 0, len(items))
	for _, item := range items {
		emb, ok := vectors[item.Key]
		if !ok {
			slog.Warn("embedded item has no stored vector", "key", item.Key.String())
			continue
		}
		members = append(members, &cluster.Member{Item: item, Vector: emb.Vector})
	}

	engine, err := cluster.NewEngine(cluster.Config{
		MinSim:         cfg.Cluster.MinSim,
		DedupSim:       cfg.Cluster.DedupSim,
		MinClusterSize: cfg.Cluster.MinClusterSize,
		MaxGroups:      cfg.Cluster.MaxGroups,
	})
	if err != nil {
		return fmt.Errorf("invalid cluster configuration: %w", err)
	}

	builder, err := digest.NewBuilder(digest.Config{
		MaxPerGroup:     cfg.Digest.MaxPerGroup,
		OverviewBullets: cfg.Digest.OverviewBullets,
		MaxChars:        cfg.Digest.MaxChars,
	}, store.Provider().Synthesizer())
	if err != nil {
		return fmt.Errorf("invalid digest configuration: %w", err)
	}

	groups := engine.Cluster(members)
	doc, err := builder.Build(ctx, groups)
	if err != nil {
		return fmt.Errorf("failed to build digest: %w", err)
	}
	rendered := digest.Render(doc)

	if len(doc.Sections) > 0 {
		if err := os.MkdirAll(cfg.Pipeline.ArtifactDir, 0755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
		path := filepath.Join(cfg.Pipeline.ArtifactDir,
			fmt.Sprintf("%s_summary.md", doc.Date.Format("2006-01-02")))
		if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
			return fmt.Errorf("failed to write artifact: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Artifact: %s\n", path)
	}

	fmt.Fprintf(os.Stderr, "Items: %d, Groups: %d, Sections: %d\n",
		len(members), len(groups), len(doc.Sections))
	fmt.Print(rendered)
	return nil
}

func publishCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}
	document := string(raw)

	if c.Bool("dry-run") {
		parts := publish.SplitMessage(document, cfg.Telegram.MessageLimit)
		fmt.Fprintf(os.Stderr, "Document: %d chars, %d message(s)\n", len(document), len(parts))
		for i, part := range parts {
			fmt.Fprintf(os.Stderr, "  part %d: %d chars\n", i+1, len(part))
		}
		return nil
	}

	publisher, err := buildPublisher(cfg)
	if err != nil {
		return err
	}

	deliveryID, err := publisher.Publish(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Delivered: %s\n", deliveryID)
	return nil
}

func checkConfigCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	clean := cfg.Sanitized()
	out, err := yaml.Marshal(&clean)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Configuration OK: %d source(s)\n", len(cfg.Sources))
	fmt.Print(string(out))
	return nil
}

func printReport(report *pipeline.RunReport) {
	if report == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Run: %s\n", report.RunID)
	fmt.Fprintf(os.Stderr, "State: %s\n", report.State)
	fmt.Fprintf(os.Stderr, "Fetched: %d (stored %d, skipped sources %d)\n",
		report.Fetched(), report.Stored(), report.SkippedSources())
	fmt.Fprintf(os.Stderr, "Translated: %d, Embedded: %d, Deferred: %d\n",
		report.Translated(), report.Embedded(), report.Deferred())
	fmt.Fprintf(os.Stderr, "Groups: %d, Sections: %d\n", report.Groups, report.Sections)
	if report.ArtifactPath != "" {
		fmt.Fprintf(os.Stderr, "Artifact: %s\n", report.ArtifactPath)
	}
	if report.DeliveryID != "" {
		fmt.Fprintf(os.Stderr, "Delivered: %s\n", report.DeliveryID)
	}
}
