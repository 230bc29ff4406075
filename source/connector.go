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


// Package source defines the contract for item connectors feeding the
// pipeline, plus the raw item shape they deliver.
package source

import (
	"context"
	"errors"
	"time"
)

// ErrSourceUnavailable indicates a source identity could not be
// resolved or its backend could not be reached. The orchestrator skips
// the source and continues the run.
var ErrSourceUnavailable = errors.New("source unavailable")

// RawItem is one text unit as delivered by a connector, before any
// pipeline processing.
type RawItem struct {
	// ItemID is unique within the source.
	ItemID string

	// Timestamp is the publication time in UTC.
	Timestamp time.Time

	// Text is the raw message text.
	Text string

	// Link is the canonical reference for citations.
	Link string
}

// Connector fetches items for a source. Implementations are restartable
// per source: a failed fetch can be retried without side effects.
type Connector interface {
	// Fetch returns all items for the source published at or after
	// since. Unknown or unreachable sources fail with
	// ErrSourceUnavailable.
	Fetch(ctx context.Context, sourceID string, since time.Time) ([]RawItem, error)
}
