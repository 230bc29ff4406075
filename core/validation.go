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


package core

import (
	"fmt"
	"time"
)

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - Key must carry both a source ID and an item ID
//   - RawText must not be empty
//   - Timestamp must be set and not in the future
//
// NOT validated (populated by pipeline stages):
//   - NormalizedText (empty until the translation stage runs)
//   - Stage (zero value is corrected to StageFetched on upsert)
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if item.Key.SourceID == "" || item.Key.ItemID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyKey)
	}

	if item.RawText == "" {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrEmptyText)
	}

	if !IsValidTimestamp(item.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrInvalidTimestamp)
	}

	return nil
}

// IsValidTimestamp reports whether ts is set and not in the future.
// A small clock-skew allowance keeps items from freshly synced sources
// from being rejected.
func IsValidTimestamp(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return !ts.After(time.Now().UTC().Add(5 * time.Minute))
}
