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


package vectorcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/recap/ai"
	"github.com/poiesic/recap/core"
	"github.com/poiesic/recap/storage"
)

// Cache fronts the embedding repository with a read-through policy.
// A vector is computed at most once per (item, model); hits never call
// the embedder, and a failed computation leaves no durable state.
type Cache struct {
	repo     storage.EmbeddingRepository
	embedder ai.Embedder
	model    string
	logger   *slog.Logger
}

// New creates a vector cache over the given repository and embedder.
// The model identifier is part of every cache key, so switching models
// repopulates rather than corrupts.
func New(repo storage.EmbeddingRepository, embedder ai.Embedder, model string) (*Cache, error) {
	if model == "" {
		return nil, errors.New("vectorcache: model identifier is required")
	}
	return &Cache{
		repo:     repo,
		embedder: embedder,
		model:    model,
		logger:   slog.Default().With("component", "vectorcache"),
	}, nil
}

// Model returns the model identifier this cache is scoped to.
func (c *Cache) Model() string {
	return c.model
}

// GetOrEmbed returns the stored vector for the item, computing and
// persisting it on a miss. On computation failure nothing is stored and
// the error wraps ai.ErrEmbeddingUnavailable.
func (c *Cache) GetOrEmbed(ctx context.Context, item *core.Item) ([]float32, error) {
	cached, err := c.repo.Get(ctx, item.Key, c.model)
	if err == nil {
		return cached.Vector, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	vector, err := c.embedder.EmbedText(ctx, item.Text())
	if err != nil {
		if errors.Is(err, ai.ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ai.ErrEmbeddingUnavailable, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty vector for %s", ai.ErrEmbeddingUnavailable, item.Key)
	}

	inserted, err := c.repo.Put(ctx, &core.Embedding{
		Key:    item.Key,
		Model:  c.model,
		Vector: vector,
	})
	if err != nil {
		return nil, err
	}
	if !inserted {
		// A concurrent worker won the write; their vector is canonical.
		stored, err := c.repo.Get(ctx, item.Key, c.model)
		if err != nil {
			return nil, err
		}
		return stored.Vector, nil
	}

	c.logger.Debug("embedded item", "key", item.Key.String(), "dim", len(vector))
	return vector, nil
}

// GetBatch returns all stored vectors for the given keys under the
// cache's model. Keys without a vector are absent from the result.
func (c *Cache) GetBatch(ctx context.Context, keys []core.ItemKey) (map[core.ItemKey]*core.Embedding, error) {
	return c.repo.GetBatch(ctx, keys, c.model)
}
