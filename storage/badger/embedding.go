package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recap/core"
	"github.com/poiesic/recap/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	return &EmbeddingRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// Put stores the embedding if no vector exists for the (key, model)
// pair. Existing records are immutable and left untouched.
func (r *EmbeddingRepository) Put(ctx context.Context, emb *core.Embedding) (bool, error) {
	inserted := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEmbeddingKey(emb.Key, emb.Model)

		_, err := tx.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		if emb.CreatedAt.IsZero() {
			emb.CreatedAt = time.Now().UTC()
		}
		if err := tx.Set(key, storage.MarshalEmbedding(emb)); err != nil {
			return err
		}

		inserted = true
		return tx.Commit()
	}, true)

	return inserted, err
}

// Get retrieves the embedding for one item and model.
func (r *EmbeddingRepository) Get(ctx context.Context, key core.ItemKey, model string) (*core.Embedding, error) {
	var result *core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(key, model))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			result, unmarshalErr = storage.UnmarshalEmbedding(val)
			return unmarshalErr
		})
	}, false)
	return result, err
}

// GetBatch retrieves embeddings for multiple items under one model.
// Items without a stored vector are omitted from the result.
func (r *EmbeddingRepository) GetBatch(ctx context.Context, keys []core.ItemKey, model string) (map[core.ItemKey]*core.Embedding, error) {
	result := make(map[core.ItemKey]*core.Embedding, len(keys))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			item, err := tx.Get(makeEmbeddingKey(key, model))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					continue
				}
				return err
			}
			var emb *core.Embedding
			if err := item.Value(func(val []byte) error {
				var unmarshalErr error
				emb, unmarshalErr = storage.UnmarshalEmbedding(val)
				return unmarshalErr
			}); err != nil {
				return err
			}
			result[emb.Key] = emb
		}
		return nil
	}, false)
	return result, err
}
