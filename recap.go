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


package recap

import (
	"log/slog"

	"github.com/poiesic/recap/ai"
	"github.com/poiesic/recap/ai/openai"
	"github.com/poiesic/recap/storage"
	"github.com/poiesic/recap/storage/badger"
	"github.com/poiesic/recap/vectorcache"
)

// Store bundles the persistent repositories and the AI provider behind
// one open/close lifecycle.
type Store struct {
	backend       *badger.Backend
	itemRepo      storage.ItemRepository
	embeddingRepo storage.EmbeddingRepository
	provider      ai.Provider
	aiConfig      *ai.Config
	logger        *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig sets the AI service configuration used for the provider.
func WithAIConfig(config *ai.Config) StoreOption {
	return func(o *storeOptions) {
		o.aiConfig = config
	}
}

func NewStore(filePath string, opts ...StoreOption) (*Store, error) {
	// Apply options
	options := &storeOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create item repository
	itemRepo, err := badger.NewItemRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create embedding repository
	embeddingRepo, err := badger.NewEmbeddingRepository(backend)
	if err != nil {
		itemRepo.Close()
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		embeddingRepo.Close()
		itemRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Store{
		backend:       backend,
		itemRepo:      itemRepo,
		embeddingRepo: embeddingRepo,
		provider:      provider,
		aiConfig:      options.aiConfig,
		logger:        slog.Default(),
	}, nil
}

func (s *Store) Close() error {
	// Close AI provider first
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := s.embeddingRepo.Close(); err != nil {
		s.logger.Error("error closing embedding repository", "err", err)
		return err
	}
	if err := s.itemRepo.Close(); err != nil {
		s.logger.Error("error closing item repository", "err", err)
		return err
	}

	// Close backend
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Store) ItemRepository() storage.ItemRepository {
	return s.itemRepo
}

func (s *Store) EmbeddingRepository() storage.EmbeddingRepository {
	return s.embeddingRepo
}

func (s *Store) Provider() ai.Provider {
	return s.provider
}

// NewVectorCache builds the read-through cache over this store's
// embedding repository and provider, keyed by the configured model.
func (s *Store) NewVectorCache() (*vectorcache.Cache, error) {
	return vectorcache.New(s.embeddingRepo, s.provider.Embedder(), s.aiConfig.EmbeddingModel)
}
