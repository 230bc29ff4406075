package storage

import (
	"context"
	"time"

	"github.com/poiesic/recap/core"
)

// ItemRepository provides durable, idempotent storage for items and
// their processing stage. Implementations must be thread-safe and must
// serialize writes per item key so concurrent workers cannot race on
// the same (source_id, item_id).
type ItemRepository interface {
	// Upsert inserts the item if its key is absent and returns true.
	// If the key already exists the stored row is left untouched
	// (including NormalizedText and Stage) and Upsert returns false.
	Upsert(ctx context.Context, item *core.Item) (bool, error)

	// AdvanceStage moves an item to the next stage. The transition is
	// rejected with a *core.StaleStageError unless the item's current
	// stage immediately precedes newStage. For StageTranslated the
	// payload is the normalized text; other stages ignore it.
	AdvanceStage(ctx context.Context, key core.ItemKey, newStage core.Stage, payload string) error

	// Get retrieves a single item by key.
	// Returns ErrNotFound if the item doesn't exist.
	Get(ctx context.Context, key core.ItemKey) (*core.Item, error)

	// SelectWindow returns all items with since <= Timestamp < until at
	// or beyond minStage, ordered by timestamp ascending and then by
	// (source_id, item_id) for determinism.
	SelectWindow(ctx context.Context, since, until time.Time, minStage core.Stage) ([]*core.Item, error)

	// Close releases repository resources.
	Close() error
}

// EmbeddingRepository associates items with embedding vectors, keyed
// by item identity and embedding-model identity. Records are
// write-once: a vector for an existing (key, model) pair is never
// overwritten.
type EmbeddingRepository interface {
	// Put stores the embedding if absent and returns true. Returns
	// false without writing when a vector already exists for the
	// (key, model) pair.
	Put(ctx context.Context, emb *core.Embedding) (bool, error)

	// Get retrieves the embedding for one item and model.
	// Returns ErrNotFound if no vector has been stored.
	Get(ctx context.Context, key core.ItemKey, model string) (*core.Embedding, error)

	// GetBatch retrieves embeddings for multiple items under one model.
	// Missing entries are silently omitted from the result.
	GetBatch(ctx context.Context, keys []core.ItemKey, model string) (map[core.ItemKey]*core.Embedding, error)

	// Close releases repository resources.
	Close() error
}
