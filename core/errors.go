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
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrStaleStage indicates an attempted stage transition that does not
	// immediately follow the item's current stage.
	ErrStaleStage = errors.New("stale stage transition")

	// ErrInvalidItem indicates an Item failed validation.
	ErrInvalidItem = errors.New("invalid item")

	// ErrEmptyText indicates the RawText field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyKey indicates the item key is missing a source or item ID.
	ErrEmptyKey = errors.New("item key cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is zero or in the future.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// StaleStageError reports a rejected stage transition. It unwraps to
// ErrStaleStage so callers can match with errors.Is.
type StaleStageError struct {
	Key  ItemKey
	From Stage
	To   Stage
}

func (e *StaleStageError) Error() string {
	return fmt.Sprintf("stale stage transition for %s: %s -> %s", e.Key, e.From, e.To)
}

func (e *StaleStageError) Unwrap() error {
	return ErrStaleStage
}
