package badger

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/recap/core"
	"github.com/poiesic/recap/storage"
)

// lockStripes is the number of per-key mutex stripes. Writes to the
// same item key always map to the same stripe, which is what serializes
// concurrent workers racing on one (source_id, item_id).
const lockStripes = 64

// ItemRepository implements storage.ItemRepository for BadgerDB.
type ItemRepository struct {
	backend *Backend
	locks   [lockStripes]sync.Mutex
}

var _ storage.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new ItemRepository.
func NewItemRepository(backend *Backend) (*ItemRepository, error) {
	return &ItemRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *ItemRepository) Close() error {
	return nil
}

// lockFor returns the stripe mutex guarding writes for one item key.
func (r *ItemRepository) lockFor(key core.ItemKey) *sync.Mutex {
	return &r.locks[core.Fingerprint(key.String())%lockStripes]
}

// Upsert inserts the item if its key is absent, returning true.
// An existing row is left untouched and Upsert returns false, so a
// re-fetch never clobbers translated or embedded state.
func (r *ItemRepository) Upsert(ctx context.Context, item *core.Item) (bool, error) {
	if err := core.ValidateItem(item); err != nil {
		return false, err
	}

	mu := r.lockFor(item.Key)
	mu.Lock()
	defer mu.Unlock()

	inserted := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeItemKey(item.Key)
		existing, err := readItem(tx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}

		if item.Stage == 0 {
			item.Stage = core.StageFetched
		}
		item.CollectedAt = time.Now().UTC()
		item.UpdatedAt = item.CollectedAt

		if err := tx.Set(key, storage.MarshalItem(item)); err != nil {
			return err
		}
		dateKey := makeItemDateKey(item.Timestamp, item.Key)
		if err := tx.Set(dateKey, storage.MarshalItemKey(item.Key)); err != nil {
			return err
		}

		inserted = true
		return tx.Commit()
	}, true)

	return inserted, err
}

// AdvanceStage moves an item to the next stage, enforcing strict
// ordering. Any transition that does not immediately follow the
// current stage is rejected with a *core.StaleStageError.
func (r *ItemRepository) AdvanceStage(ctx context.Context, key core.ItemKey, newStage core.Stage, payload string) error {
	if !newStage.Valid() || newStage == core.StageFetched {
		return &core.StaleStageError{Key: key, To: newStage}
	}

	mu := r.lockFor(key)
	mu.Lock()
	defer mu.Unlock()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		primaryKey := makeItemKey(key)
		item, err := readItem(tx, primaryKey)
		if err != nil {
			return err
		}
		if item == nil {
			return storage.ErrNotFound
		}

		if item.Stage+1 != newStage {
			return &core.StaleStageError{Key: key, From: item.Stage, To: newStage}
		}

		item.Stage = newStage
		if newStage == core.StageTranslated {
			item.NormalizedText = payload
		}
		item.UpdatedAt = time.Now().UTC()

		if err := tx.Set(primaryKey, storage.MarshalItem(item)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Get retrieves a single item by key.
func (r *ItemRepository) Get(ctx context.Context, key core.ItemKey) (*core.Item, error) {
	var result *core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readItem(tx, makeItemKey(key))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// SelectWindow returns items with since <= Timestamp < until at or
// beyond minStage, ordered by timestamp ascending then by
// (source_id, item_id).
func (r *ItemRepository) SelectWindow(ctx context.Context, since, until time.Time, minStage core.Stage) ([]*core.Item, error) {
	if until.Before(since) {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.Item
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialItemDateKey(since)
		endKey := makePartialItemDateKey(until)
		prefix := []byte(itemDatePrefix + ":")

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}
			// until is exclusive: the partial key sorts before any full
			// key carrying the same timestamp.
			if bytes.Compare(key, endKey) >= 0 {
				break
			}

			var itemKey core.ItemKey
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				itemKey, err = storage.UnmarshalItemKey(val)
				return err
			}); err != nil {
				return err
			}

			item, err := readItem(tx, makeItemKey(itemKey))
			if err != nil {
				return err
			}
			if item != nil && item.Stage >= minStage {
				results = append(results, item)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// The index orders by timestamp already; re-sort to get the
	// documented (timestamp, source_id, item_id) order since marshaled
	// keys are length-prefixed and do not sort lexicographically.
	slices.SortFunc(results, func(a, b *core.Item) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return a.Key.Compare(b.Key)
	})

	return results, nil
}

// readItem reads an item from the transaction. Returns nil, nil when
// the key is absent.
func readItem(tx *badger.Txn, key []byte) (*core.Item, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var result *core.Item
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		result, unmarshalErr = storage.UnmarshalItem(val)
		return unmarshalErr
	})
	return result, err
}
