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


// Package storage provides the storage abstraction layer for recap.
//
// It defines the repository interfaces that decouple the pipeline from
// the storage backend:
//
//   - ItemRepository: durable, idempotent item rows with strict stage
//     ordering (fetched -> translated -> embedded -> clustered)
//   - EmbeddingRepository: write-once vectors keyed by item identity
//     and embedding-model identity
//
// Constructors in implementation packages return these interfaces so
// callers never couple to a specific backend:
//
//	repo, err := badger.NewItemRepository(backend)
//
// All repository implementations must be thread-safe, and all methods
// accept a context.Context for cancellation and timeouts.
package storage
