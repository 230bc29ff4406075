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


package storage

import (
	"fmt"

	"github.com/poiesic/recap/core"
)

// MarshalItemKey serializes an ItemKey to bytes.
func MarshalItemKey(key core.ItemKey) []byte {
	buf := make([]byte, core.ItemKeyMUS.Size(key))
	core.ItemKeyMUS.Marshal(key, buf)
	return buf
}

// UnmarshalItemKey deserializes an ItemKey from bytes.
func UnmarshalItemKey(data []byte) (core.ItemKey, error) {
	key, _, err := core.ItemKeyMUS.Unmarshal(data)
	if err != nil {
		return core.ItemKey{}, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return key, nil
}

// MarshalItem serializes an Item to bytes.
func MarshalItem(item *core.Item) []byte {
	buf := make([]byte, core.ItemMUS.Size(*item))
	core.ItemMUS.Marshal(*item, buf)
	return buf
}

// UnmarshalItem deserializes an Item from bytes.
func UnmarshalItem(data []byte) (*core.Item, error) {
	item, _, err := core.ItemMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &item, nil
}

// MarshalEmbedding serializes an Embedding to bytes.
func MarshalEmbedding(emb *core.Embedding) []byte {
	buf := make([]byte, core.EmbeddingMUS.Size(*emb))
	core.EmbeddingMUS.Marshal(*emb, buf)
	return buf
}

// UnmarshalEmbedding deserializes an Embedding from bytes.
func UnmarshalEmbedding(data []byte) (*core.Embedding, error) {
	emb, _, err := core.EmbeddingMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &emb, nil
}
