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


package pipeline

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrItemRepositoryRequired indicates a nil item repository was passed.
	ErrItemRepositoryRequired = errors.New("item repository is required")

	// ErrVectorCacheRequired indicates a nil vector cache was passed.
	ErrVectorCacheRequired = errors.New("vector cache is required")

	// ErrProviderRequired indicates a nil AI provider was passed.
	ErrProviderRequired = errors.New("ai provider is required")

	// ErrConnectorRequired indicates a nil source connector was passed.
	ErrConnectorRequired = errors.New("source connector is required")

	// ErrPublisherRequired indicates a nil publisher was passed.
	ErrPublisherRequired = errors.New("publisher is required")

	// ErrEngineRequired indicates a nil clustering engine was passed.
	ErrEngineRequired = errors.New("clustering engine is required")

	// ErrBuilderRequired indicates a nil digest builder was passed.
	ErrBuilderRequired = errors.New("digest builder is required")

	// ErrInvalidMaxAttempts indicates a retry policy with a non-positive
	// attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrRunFailed is the terminal error of a run that ended in FAILED.
	ErrRunFailed = errors.New("run failed")
)

// transientError marks a failure as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string {
	return fmt.Sprintf("transient: %v", e.err)
}

func (e *transientError) Unwrap() error {
	return e.err
}

// MarkTransient wraps an error so the retry policy treats it as
// retryable. A nil error stays nil.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether the error is retryable: explicitly marked
// failures and call timeouts qualify.
func IsTransient(err error) bool {
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
