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


// Package publish delivers assembled digests to an outbound channel,
// splitting oversized documents at semantic boundaries first.
package publish

import (
	"context"
	"errors"
)

// ErrPublishUnavailable indicates the publishing sink rejected the
// document or could not be reached. After a digest exists this is fatal
// to the run.
var ErrPublishUnavailable = errors.New("publish sink unavailable")

// Publisher delivers one rendered document to the sink.
type Publisher interface {
	// Publish sends the document, splitting it into multiple messages
	// when it exceeds the sink's per-message limit. Returns an opaque
	// delivery identifier on success and wraps ErrPublishUnavailable on
	// failure.
	Publish(ctx context.Context, document string) (string, error)
}

// Notifier reports fatal run failures out of band. Implementations are
// best-effort and never return an error.
type Notifier interface {
	NotifyFailure(ctx context.Context, runID, summary string)
}
