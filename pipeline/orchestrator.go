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


package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/recap/ai"
	"github.com/poiesic/recap/cluster"
	"github.com/poiesic/recap/core"
	"github.com/poiesic/recap/digest"
	"github.com/poiesic/recap/publish"
	"github.com/poiesic/recap/source"
	"github.com/poiesic/recap/storage"
	"github.com/poiesic/recap/vectorcache"
)

// Config holds the run-level knobs of the orchestrator.
type Config struct {
	// Sources are the source identities to fetch each run.
	Sources []string

	// Window is how far back a run reaches. Default: 48h
	Window time.Duration

	// Concurrency bounds within-stage parallel work. Default: 4
	Concurrency int

	// CallTimeout applies to each external call. Default: 30s
	CallTimeout time.Duration

	// Retry governs transient-failure retries per item.
	Retry RetryPolicy

	// ArtifactDir receives the rendered digest before publishing.
	// Default: "exports"
	ArtifactDir string
}

// DefaultConfig returns the standard orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		Window:      48 * time.Hour,
		Concurrency: 4,
		CallTimeout: 30 * time.Second,
		Retry:       DefaultRetryPolicy(),
		ArtifactDir: "exports",
	}
}

// Orchestrator drives one run through its stages: fetch, translate,
// embed, cluster, build, publish. State is run-scoped; the orchestrator
// itself is reusable across runs.
type Orchestrator struct {
	items     storage.ItemRepository
	cache     *vectorcache.Cache
	provider  ai.Provider
	connector source.Connector
	engine    *cluster.Engine
	builder   *digest.Builder
	publisher publish.Publisher
	notifier  publish.Notifier
	config    Config
	sleep     SleepFunc
	logger    *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleep overrides the backoff sleeper, used with a fake clock in
// tests.
func WithSleep(sleep SleepFunc) Option {
	return func(o *Orchestrator) {
		o.sleep = sleep
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// NewOrchestrator wires the pipeline components together.
func NewOrchestrator(
	items storage.ItemRepository,
	cache *vectorcache.Cache,
	provider ai.Provider,
	connector source.Connector,
	engine *cluster.Engine,
	builder *digest.Builder,
	publisher publish.Publisher,
	notifier publish.Notifier,
	config Config,
	opts ...Option,
) (*Orchestrator, error) {
	if items == nil {
		return nil, ErrItemRepositoryRequired
	}
	if cache == nil {
		return nil, ErrVectorCacheRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if connector == nil {
		return nil, ErrConnectorRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}
	if builder == nil {
		return nil, ErrBuilderRequired
	}
	if publisher == nil {
		return nil, ErrPublisherRequired
	}
	if err := config.Retry.Validate(); err != nil {
		return nil, err
	}
	if config.Window <= 0 {
		config.Window = 48 * time.Hour
	}
	if config.Concurrency < 1 {
		config.Concurrency = 4
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = 30 * time.Second
	}
	if config.ArtifactDir == "" {
		config.ArtifactDir = "exports"
	}
	if notifier == nil {
		notifier = publish.NewLogNotifier()
	}

	o := &Orchestrator{
		items:     items,
		cache:     cache,
		provider:  provider,
		connector: connector,
		engine:    engine,
		builder:   builder,
		publisher: publisher,
		notifier:  notifier,
		config:    config,
		sleep:     ContextSleep,
		logger:    slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes one full pipeline pass. A stage starts only after the
// prior stage finished its whole eligible set; within a stage, items
// fail independently. The returned report is always non-nil; its Err
// field carries the fatal error of a FAILED run.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
	}
	logger := o.logger.With("run_id", report.RunID)
	logger.Info("starting run", "sources", len(o.config.Sources))

	until := report.Started
	since := until.Add(-o.config.Window)

	stages := []struct {
		state State
		run   func(context.Context, *RunReport, time.Time, time.Time) error
	}{
		{StateFetching, o.runFetch},
		{StateTranslating, o.runTranslate},
		{StateEmbedding, o.runEmbed},
		{StateClustering, o.runClusterAndPublish},
	}

	for _, stage := range stages {
		report.State = stage.state
		logger.Info("entering stage", "state", stage.state)
		if err := stage.run(ctx, report, since, until); err != nil {
			return o.fail(ctx, report, err)
		}
	}

	report.State = StateDone
	report.Finished = time.Now().UTC()
	logger.Info("run complete",
		"stored", report.Stored(),
		"deferred", report.Deferred(),
		"sections", report.Sections,
		"delivery_id", report.DeliveryID)
	return report, nil
}

// fail moves the run to FAILED, notifies, and preserves the report.
func (o *Orchestrator) fail(ctx context.Context, report *RunReport, err error) (*RunReport, error) {
	report.State = StateFailed
	report.Finished = time.Now().UTC()
	report.Err = err
	o.logger.Error("run failed", "run_id", report.RunID, "err", err)

	// Notification must not depend on the possibly-cancelled run context.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.config.CallTimeout)
	defer cancel()
	o.notifier.NotifyFailure(notifyCtx, report.RunID, err.Error())

	return report, fmt.Errorf("%w: %w", ErrRunFailed, err)
}

// runFetch pulls every configured source and upserts its items. An
// unavailable source is skipped; any other failure is fatal.
func (o *Orchestrator) runFetch(ctx context.Context, report *RunReport, since, until time.Time) error {
	for _, sourceID := range o.config.Sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		var raw []source.RawItem
		err := o.config.Retry.Execute(ctx, func() error {
			callCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
			defer cancel()
			var fetchErr error
			raw, fetchErr = o.connector.Fetch(callCtx, sourceID, since)
			return fetchErr
		}, o.sleep)
		if err != nil {
			if errors.Is(err, source.ErrSourceUnavailable) || IsTransient(err) {
				o.logger.Warn("skipping unavailable source", "source", sourceID, "err", err)
				report.skippedSources.Add(1)
				continue
			}
			return fmt.Errorf("fetch %s: %w", sourceID, err)
		}

		for _, r := range raw {
			report.fetched.Add(1)
			item := &core.Item{
				Key:       core.ItemKey{SourceID: sourceID, ItemID: r.ItemID},
				Timestamp: r.Timestamp,
				RawText:   r.Text,
				Link:      r.Link,
			}
			inserted, err := o.items.Upsert(ctx, item)
			if err != nil {
				if errors.Is(err, core.ErrInvalidItem) {
					o.logger.Warn("dropping invalid item", "source", sourceID, "err", err)
					continue
				}
				return fmt.Errorf("upsert %s: %w", item.Key, err)
			}
			if inserted {
				report.stored.Add(1)
			}
		}
	}
	return nil
}

// runTranslate advances every fetched item in the window through the
// translator. Exhausted retries defer the item to the next run.
func (o *Orchestrator) runTranslate(ctx context.Context, report *RunReport, since, until time.Time) error {
	eligible, err := o.selectAtStage(ctx, since, until, core.StageFetched)
	if err != nil {
		return err
	}

	return o.forEachItem(ctx, eligible, func(ctx context.Context, item *core.Item) {
		var text string
		err := o.config.Retry.Execute(ctx, func() error {
			callCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
			defer cancel()
			var trErr error
			text, trErr = o.provider.Translator().Translate(callCtx, item.RawText)
			if errors.Is(trErr, ai.ErrTranslationUnavailable) {
				return MarkTransient(trErr)
			}
			return trErr
		}, o.sleep)
		if err != nil {
			o.logger.Warn("translation deferred", "key", item.Key.String(), "err", err)
			report.deferred.Add(1)
			return
		}

		if err := o.items.AdvanceStage(ctx, item.Key, core.StageTranslated, text); err != nil {
			o.logger.Warn("stage advance rejected", "key", item.Key.String(), "err", err)
			report.deferred.Add(1)
			return
		}
		report.translated.Add(1)
	})
}

// runEmbed computes or recalls a vector for every translated item in
// the window. Exhausted retries defer the item to the next run.
func (o *Orchestrator) runEmbed(ctx context.Context, report *RunReport, since, until time.Time) error {
	eligible, err := o.selectAtStage(ctx, since, until, core.StageTranslated)
	if err != nil {
		return err
	}

	return o.forEachItem(ctx, eligible, func(ctx context.Context, item *core.Item) {
		err := o.config.Retry.Execute(ctx, func() error {
			callCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
			defer cancel()
			_, embErr := o.cache.GetOrEmbed(callCtx, item)
			if errors.Is(embErr, ai.ErrEmbeddingUnavailable) {
				return MarkTransient(embErr)
			}
			return embErr
		}, o.sleep)
		if err != nil {
			o.logger.Warn("embedding deferred", "key", item.Key.String(), "err", err)
			report.deferred.Add(1)
			return
		}

		if err := o.items.AdvanceStage(ctx, item.Key, core.StageEmbedded, ""); err != nil {
			o.logger.Warn("stage advance rejected", "key", item.Key.String(), "err", err)
			report.deferred.Add(1)
			return
		}
		report.embedded.Add(1)
	})
}

// runClusterAndPublish clusters the embedded window, builds the digest,
// writes the artifact, publishes, and bulk-advances published items to
// the clustered stage. An empty digest completes without touching the
// publisher.
func (o *Orchestrator) runClusterAndPublish(ctx context.Context, report *RunReport, since, until time.Time) error {
	eligible, err := o.selectAtStage(ctx, since, until, core.StageEmbedded)
	if err != nil {
		return err
	}

	members := make([]*cluster.Member, 0, len(eligible))
	if len(eligible) > 0 {
		keys := make([]core.ItemKey, len(eligible))
		for i, item := range eligible {
			keys[i] = item.Key
		}
		vectors, err := o.cache.GetBatch(ctx, keys)
		if err != nil {
			return fmt.Errorf("load vectors: %w", err)
		}
		for _, item := range eligible {
			emb, ok := vectors[item.Key]
			if !ok {
				o.logger.Warn("embedded item has no stored vector", "key", item.Key.String())
				continue
			}
			members = append(members, &cluster.Member{Item: item, Vector: emb.Vector})
		}
	}

	groups := o.engine.Cluster(members)
	report.Groups = len(groups)

	doc, err := o.builder.Build(ctx, groups)
	if err != nil {
		return fmt.Errorf("build digest: %w", err)
	}
	report.Sections = len(doc.Sections)

	if len(doc.Sections) == 0 {
		o.logger.Info("empty digest, nothing to publish")
		return nil
	}

	rendered := digest.Render(doc)
	artifact, err := o.writeArtifact(doc.Date, rendered)
	if err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	report.ArtifactPath = artifact

	report.State = StatePublishing
	publishCtx, cancel := context.WithTimeout(ctx, o.config.CallTimeout)
	defer cancel()
	deliveryID, err := o.publisher.Publish(publishCtx, rendered)
	if err != nil {
		// The artifact stays on disk for manual recovery.
		return fmt.Errorf("publish (artifact preserved at %s): %w", artifact, err)
	}
	report.DeliveryID = deliveryID

	o.advanceClustered(ctx, groups)
	return nil
}

// advanceClustered bulk-marks every item of the published groups.
// Failures are logged, not fatal: the digest is already delivered.
func (o *Orchestrator) advanceClustered(ctx context.Context, groups []*cluster.Group) {
	mark := func(key core.ItemKey) {
		if err := o.items.AdvanceStage(ctx, key, core.StageClustered, ""); err != nil {
			o.logger.Warn("failed to mark item clustered", "key", key.String(), "err", err)
		}
	}
	for _, group := range groups {
		for _, member := range group.Members {
			mark(member.Item.Key)
		}
		for _, dup := range group.Duplicates {
			mark(dup.Item.Key)
		}
	}
}

// selectAtStage returns window items sitting exactly at the given
// stage, the eligible set for the stage that advances them.
func (o *Orchestrator) selectAtStage(ctx context.Context, since, until time.Time, stage core.Stage) ([]*core.Item, error) {
	items, err := o.items.SelectWindow(ctx, since, until, stage)
	if err != nil {
		return nil, err
	}
	eligible := items[:0]
	for _, item := range items {
		if item.Stage == stage {
			eligible = append(eligible, item)
		}
	}
	return eligible, nil
}

// forEachItem fans the items out over a bounded worker pool. The stop
// signal is checked between submissions, never mid-item, so a cancelled
// run halts cleanly without corrupting stage state.
func (o *Orchestrator) forEachItem(ctx context.Context, items []*core.Item, fn func(context.Context, *core.Item)) error {
	if len(items) == 0 {
		return nil
	}

	pool, err := ants.NewPool(o.config.Concurrency)
	if err != nil {
		return err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var stopped error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			stopped = err
			break
		}

		item := item
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			fn(ctx, item)
		})
		if submitErr != nil {
			wg.Done()
			stopped = submitErr
			break
		}
	}
	wg.Wait()
	return stopped
}

// writeArtifact stores the rendered digest under the artifact
// directory, named by the digest date.
func (o *Orchestrator) writeArtifact(date time.Time, rendered string) (string, error) {
	if err := os.MkdirAll(o.config.ArtifactDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(o.config.ArtifactDir,
		fmt.Sprintf("%s_summary.md", date.Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(rendered), 0644); err != nil {
		return "", err
	}
	return path, nil
}
