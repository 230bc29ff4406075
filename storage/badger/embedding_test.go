package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/recap/core"
	"github.com/poiesic/recap/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingPutAndGet(t *testing.T) {
	_, embs, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := core.ItemKey{SourceID: "feed-a", ItemID: "1"}

	inserted, err := embs.Put(ctx, &core.Embedding{
		Key:    key,
		Model:  "test-model",
		Vector: []float32{0.1, 0.2, 0.3},
	})
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := embs.Get(ctx, key, "test-model")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, got.Vector)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestEmbeddingPutImmutable(t *testing.T) {
	_, embs, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := core.ItemKey{SourceID: "feed-a", ItemID: "1"}

	inserted, err := embs.Put(ctx, &core.Embedding{
		Key: key, Model: "test-model", Vector: []float32{1, 2, 3},
	})
	require.NoError(t, err)
	require.True(t, inserted)

	// A second write for the same (key, model) is a no-op.
	inserted, err = embs.Put(ctx, &core.Embedding{
		Key: key, Model: "test-model", Vector: []float32{9, 9, 9},
	})
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := embs.Get(ctx, key, "test-model")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, got.Vector)
}

func TestEmbeddingModelsIndependent(t *testing.T) {
	_, embs, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	key := core.ItemKey{SourceID: "feed-a", ItemID: "1"}

	_, err = embs.Put(ctx, &core.Embedding{Key: key, Model: "model-a", Vector: []float32{1}})
	require.NoError(t, err)
	_, err = embs.Put(ctx, &core.Embedding{Key: key, Model: "model-b", Vector: []float32{2}})
	require.NoError(t, err)

	a, err := embs.Get(ctx, key, "model-a")
	require.NoError(t, err)
	b, err := embs.Get(ctx, key, "model-b")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, a.Vector)
	assert.Equal(t, []float32{2}, b.Vector)
}

func TestEmbeddingGetMissing(t *testing.T) {
	_, embs, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	_, err = embs.Get(context.Background(),
		core.ItemKey{SourceID: "feed-a", ItemID: "nope"}, "test-model")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEmbeddingGetBatch(t *testing.T) {
	_, embs, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	keys := []core.ItemKey{
		{SourceID: "feed-a", ItemID: "1"},
		{SourceID: "feed-a", ItemID: "2"},
		{SourceID: "feed-b", ItemID: "1"},
	}
	for i, key := range keys[:2] {
		_, err := embs.Put(ctx, &core.Embedding{
			Key: key, Model: "test-model",
			Vector:    []float32{float32(i)},
			CreatedAt: now,
		})
		require.NoError(t, err)
	}

	// The third key has no stored vector and is silently omitted.
	got, err := embs.GetBatch(ctx, keys, "test-model")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Contains(t, got, keys[0])
	assert.Contains(t, got, keys[1])
	assert.NotContains(t, got, keys[2])
}
