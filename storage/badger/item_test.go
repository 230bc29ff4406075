package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/recap/core"
	"github.com/poiesic/recap/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestItem(source, id, text string, ts time.Time) *core.Item {
	return &core.Item{
		Key:       core.ItemKey{SourceID: source, ItemID: id},
		Timestamp: ts,
		RawText:   text,
	}
}

func TestItemUpsertAndGet(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	ts := time.Now().Add(-time.Hour).UTC()

	inserted, err := items.Upsert(ctx, newTestItem("feed-a", "1", "breaking news", ts))
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := items.Get(ctx, core.ItemKey{SourceID: "feed-a", ItemID: "1"})
	require.NoError(t, err)
	assert.Equal(t, "breaking news", got.RawText)
	assert.Equal(t, core.StageFetched, got.Stage)
	assert.False(t, got.CollectedAt.IsZero())
}

func TestItemUpsertIdempotent(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := core.ItemKey{SourceID: "feed-a", ItemID: "1"}
	ts := time.Now().Add(-time.Hour).UTC()

	inserted, err := items.Upsert(ctx, newTestItem("feed-a", "1", "original", ts))
	require.NoError(t, err)
	require.True(t, inserted)

	require.NoError(t, items.AdvanceStage(ctx, key, core.StageTranslated, "translated text"))

	// Re-fetching the same item must not clobber anything.
	inserted, err = items.Upsert(ctx, newTestItem("feed-a", "1", "changed raw text", ts))
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := items.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "original", got.RawText)
	assert.Equal(t, "translated text", got.NormalizedText)
	assert.Equal(t, core.StageTranslated, got.Stage)
}

func TestItemUpsertRejectsInvalid(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()

	_, err = items.Upsert(ctx, newTestItem("", "1", "text", time.Now()))
	assert.ErrorIs(t, err, core.ErrInvalidItem)

	_, err = items.Upsert(ctx, newTestItem("feed-a", "1", "", time.Now()))
	assert.ErrorIs(t, err, core.ErrInvalidItem)

	_, err = items.Upsert(ctx, newTestItem("feed-a", "1", "text", time.Time{}))
	assert.ErrorIs(t, err, core.ErrInvalidItem)
}

func TestAdvanceStageOrdering(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := core.ItemKey{SourceID: "feed-a", ItemID: "1"}
	ts := time.Now().Add(-time.Hour).UTC()

	_, err = items.Upsert(ctx, newTestItem("feed-a", "1", "text", ts))
	require.NoError(t, err)

	// Skipping a stage fails.
	err = items.AdvanceStage(ctx, key, core.StageEmbedded, "")
	require.ErrorIs(t, err, core.ErrStaleStage)

	var stale *core.StaleStageError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, core.StageFetched, stale.From)
	assert.Equal(t, core.StageEmbedded, stale.To)

	// The full forward walk succeeds.
	require.NoError(t, items.AdvanceStage(ctx, key, core.StageTranslated, "normalized"))
	require.NoError(t, items.AdvanceStage(ctx, key, core.StageEmbedded, ""))
	require.NoError(t, items.AdvanceStage(ctx, key, core.StageClustered, ""))

	// Repeating a completed transition fails, so retries are detectable.
	err = items.AdvanceStage(ctx, key, core.StageClustered, "")
	assert.ErrorIs(t, err, core.ErrStaleStage)

	// Moving backward fails.
	err = items.AdvanceStage(ctx, key, core.StageTranslated, "again")
	assert.ErrorIs(t, err, core.ErrStaleStage)

	got, err := items.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, core.StageClustered, got.Stage)
	assert.Equal(t, "normalized", got.NormalizedText)
}

func TestAdvanceStageMissingItem(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	err = items.AdvanceStage(context.Background(),
		core.ItemKey{SourceID: "feed-a", ItemID: "ghost"}, core.StageTranslated, "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAdvanceStageRejectsFetchedTarget(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	key := core.ItemKey{SourceID: "feed-a", ItemID: "1"}
	err = items.AdvanceStage(context.Background(), key, core.StageFetched, "")
	assert.ErrorIs(t, err, core.ErrStaleStage)
}

func TestGetMissing(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = items.Get(context.Background(), core.ItemKey{SourceID: "feed-a", ItemID: "nope"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSelectWindowOrderingAndBounds(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	// Inserted out of order on purpose.
	fixtures := []*core.Item{
		newTestItem("feed-b", "2", "b2", base.Add(2*time.Hour)),
		newTestItem("feed-a", "1", "a1", base),
		newTestItem("feed-b", "1", "b1", base),
		newTestItem("feed-a", "2", "a2", base.Add(4*time.Hour)),
		newTestItem("feed-a", "3", "outside", base.Add(48*time.Hour)),
	}
	for _, item := range fixtures {
		_, err := items.Upsert(ctx, item)
		require.NoError(t, err)
	}

	got, err := items.SelectWindow(ctx, base, base.Add(5*time.Hour), core.StageFetched)
	require.NoError(t, err)
	require.Len(t, got, 4)

	// Timestamp ascending, then (source_id, item_id).
	assert.Equal(t, "a1", got[0].RawText)
	assert.Equal(t, "b1", got[1].RawText)
	assert.Equal(t, "b2", got[2].RawText)
	assert.Equal(t, "a2", got[3].RawText)

	// until is exclusive.
	got, err = items.SelectWindow(ctx, base, base.Add(2*time.Hour), core.StageFetched)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestSelectWindowStageFilter(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	_, err = items.Upsert(ctx, newTestItem("feed-a", "1", "a1", base))
	require.NoError(t, err)
	_, err = items.Upsert(ctx, newTestItem("feed-a", "2", "a2", base.Add(time.Minute)))
	require.NoError(t, err)

	key := core.ItemKey{SourceID: "feed-a", ItemID: "1"}
	require.NoError(t, items.AdvanceStage(ctx, key, core.StageTranslated, "norm"))

	got, err := items.SelectWindow(ctx, base, base.Add(time.Hour), core.StageTranslated)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, key, got[0].Key)
}

func TestSelectWindowInvalidRange(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	now := time.Now()
	_, err = items.SelectWindow(context.Background(), now, now.Add(-time.Hour), core.StageFetched)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}

func TestSelectWindowEmpty(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	now := time.Now()
	got, err := items.SelectWindow(context.Background(), now.Add(-time.Hour), now, core.StageFetched)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConcurrentUpsertSameKey(t *testing.T) {
	items, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	ts := time.Now().Add(-time.Hour).UTC()

	const workers = 8
	results := make(chan bool, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			inserted, err := items.Upsert(ctx, newTestItem("feed-a", "race", "text", ts))
			results <- inserted
			errs <- err
		}()
	}

	insertedCount := 0
	for i := 0; i < workers; i++ {
		if <-results {
			insertedCount++
		}
		require.NoError(t, <-errs)
	}
	assert.Equal(t, 1, insertedCount)
}

func TestErrorMismatch(t *testing.T) {
	// ErrNotFound must stay distinct from the stale stage sentinel.
	assert.False(t, errors.Is(storage.ErrNotFound, core.ErrStaleStage))
}
