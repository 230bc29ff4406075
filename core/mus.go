package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the domain types. Vectors use the
// raw float32 encoding; timestamps are stored as Unix microseconds.

var vectorMUS = ord.NewSliceSer[float32](raw.Float32)

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	if micros == 0 {
		return time.Time{}, n, nil
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

// ItemKeyMUS serializes ItemKey values.
var ItemKeyMUS = itemKeyMUS{}

type itemKeyMUS struct{}

func (s itemKeyMUS) Marshal(k ItemKey, bs []byte) (n int) {
	n = ord.String.Marshal(k.SourceID, bs)
	n += ord.String.Marshal(k.ItemID, bs[n:])
	return
}

func (s itemKeyMUS) Unmarshal(bs []byte) (k ItemKey, n int, err error) {
	k.SourceID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	k.ItemID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (s itemKeyMUS) Size(k ItemKey) int {
	return ord.String.Size(k.SourceID) + ord.String.Size(k.ItemID)
}

func (s itemKeyMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	return
}

// ItemMUS serializes Item values.
var ItemMUS = itemMUS{}

type itemMUS struct{}

func (s itemMUS) Marshal(it Item, bs []byte) (n int) {
	n = ItemKeyMUS.Marshal(it.Key, bs)
	n += marshalTime(it.Timestamp, bs[n:])
	n += ord.String.Marshal(it.RawText, bs[n:])
	n += ord.String.Marshal(it.NormalizedText, bs[n:])
	n += ord.String.Marshal(it.Link, bs[n:])
	n += varint.Uint64.Marshal(uint64(it.Stage), bs[n:])
	n += marshalTime(it.CollectedAt, bs[n:])
	n += marshalTime(it.UpdatedAt, bs[n:])
	return
}

func (s itemMUS) Unmarshal(bs []byte) (it Item, n int, err error) {
	var n1 int
	it.Key, n, err = ItemKeyMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	it.Timestamp, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	it.RawText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	it.NormalizedText, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	it.Link, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var stage uint64
	stage, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	it.Stage = Stage(stage)
	it.CollectedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	if err != nil {
		return
	}
	it.UpdatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s itemMUS) Size(it Item) (size int) {
	size = ItemKeyMUS.Size(it.Key)
	size += sizeTime(it.Timestamp)
	size += ord.String.Size(it.RawText)
	size += ord.String.Size(it.NormalizedText)
	size += ord.String.Size(it.Link)
	size += varint.Uint64.Size(uint64(it.Stage))
	size += sizeTime(it.CollectedAt)
	size += sizeTime(it.UpdatedAt)
	return
}

// EmbeddingMUS serializes Embedding values.
var EmbeddingMUS = embeddingMUS{}

type embeddingMUS struct{}

func (s embeddingMUS) Marshal(e Embedding, bs []byte) (n int) {
	n = ItemKeyMUS.Marshal(e.Key, bs)
	n += ord.String.Marshal(e.Model, bs[n:])
	n += vectorMUS.Marshal(e.Vector, bs[n:])
	n += marshalTime(e.CreatedAt, bs[n:])
	return
}

func (s embeddingMUS) Unmarshal(bs []byte) (e Embedding, n int, err error) {
	var n1 int
	e.Key, n, err = ItemKeyMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	e.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.CreatedAt, n1, err = unmarshalTime(bs[n:])
	n += n1
	return
}

func (s embeddingMUS) Size(e Embedding) (size int) {
	size = ItemKeyMUS.Size(e.Key)
	size += ord.String.Size(e.Model)
	size += vectorMUS.Size(e.Vector)
	size += sizeTime(e.CreatedAt)
	return
}
