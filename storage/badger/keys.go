package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/recap/core"
	"github.com/poiesic/recap/storage"
)

// Key prefixes for different data types
const (
	itemPrefix      = "itmrec"
	itemDatePrefix  = "itmrecd"
	embeddingPrefix = "embrec"
)

// makeItemKey generates a primary key for an item.
func makeItemKey(key core.ItemKey) []byte {
	prefix := []byte(itemPrefix + ":")
	return append(prefix, storage.MarshalItemKey(key)...)
}

// makeItemDateKey generates a composite key for the date index.
// Format: prefix:timestamp:key
func makeItemDateKey(timestamp time.Time, key core.ItemKey) []byte {
	prefix := []byte(itemDatePrefix + ":")
	keyBytes := storage.MarshalItemKey(key)
	buf := make([]byte, len(prefix)+8+len(keyBytes))
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], keyBytes)
	return buf
}

// makePartialItemDateKey generates a partial key for date range queries.
// Format: prefix:timestamp
func makePartialItemDateKey(timestamp time.Time) []byte {
	prefix := []byte(itemDatePrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	return buf
}

// makeEmbeddingKey generates a key for an embedding record.
// Format: prefix:model:key. The model identity is part of the key so
// vectors from different models never collide.
func makeEmbeddingKey(key core.ItemKey, model string) []byte {
	prefix := []byte(embeddingPrefix + ":" + model + ":")
	return append(prefix, storage.MarshalItemKey(key)...)
}
