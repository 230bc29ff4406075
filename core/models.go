package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Stage is a named point in an item's processing lifecycle.
// Stages advance strictly in order; skipping or reversing is rejected
// by the item repository.
type Stage uint8

const (
	// StageFetched means the raw item has been collected from its source.
	StageFetched Stage = iota + 1
	// StageTranslated means normalized text has been attached.
	StageTranslated
	// StageEmbedded means an embedding vector exists for the item.
	StageEmbedded
	// StageClustered means the item was part of a completed clustering run.
	StageClustered
)

// String returns the lowercase stage name used in logs and reports.
func (s Stage) String() string {
	switch s {
	case StageFetched:
		return "fetched"
	case StageTranslated:
		return "translated"
	case StageEmbedded:
		return "embedded"
	case StageClustered:
		return "clustered"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the defined stages.
func (s Stage) Valid() bool {
	return s >= StageFetched && s <= StageClustered
}

// ItemKey identifies an item globally: ItemID is unique within its source.
type ItemKey struct {
	SourceID string
	ItemID   string
}

// Compare orders keys by (SourceID, ItemID). Used for deterministic
// tie-breaks wherever items share a timestamp.
func (k ItemKey) Compare(other ItemKey) int {
	if k.SourceID != other.SourceID {
		if k.SourceID < other.SourceID {
			return -1
		}
		return 1
	}
	if k.ItemID != other.ItemID {
		if k.ItemID < other.ItemID {
			return -1
		}
		return 1
	}
	return 0
}

// String renders the key as "source/item" for logs.
func (k ItemKey) String() string {
	return k.SourceID + "/" + k.ItemID
}

// Item is a single text unit moving through the pipeline.
// Re-ingestion of the same key never overwrites an existing row.
type Item struct {
	Key            ItemKey
	Timestamp      time.Time // When the message was originally posted (UTC)
	RawText        string
	NormalizedText string // Post-translation text; empty until StageTranslated
	Link           string // Canonical reference to the original message
	Stage          Stage
	CollectedAt    time.Time // When the item was first stored
	UpdatedAt      time.Time
}

// Text returns the normalized text when present, the raw text otherwise.
func (it *Item) Text() string {
	if it.NormalizedText != "" {
		return it.NormalizedText
	}
	return it.RawText
}

// Embedding attaches a fixed-length vector to one item for one
// embedding-model identity. Immutable once written; a new model
// identity produces a new record.
type Embedding struct {
	Key       ItemKey
	Model     string
	Vector    []float32
	CreatedAt time.Time
}

// Fingerprint returns a deterministic 64-bit digest of text content
// using BLAKE2b. Identical content always produces identical values,
// which is what the digest builder relies on for exact-duplicate
// suppression.
func Fingerprint(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}
