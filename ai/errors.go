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


package ai

import "errors"

var (
	// ErrEmbeddingUnavailable indicates the embedding service failed or
	// could not be reached.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrTranslationUnavailable indicates the translation service failed
	// or could not be reached.
	ErrTranslationUnavailable = errors.New("translation service unavailable")

	// ErrSynthesisUnavailable indicates the summarization service failed
	// or could not be reached.
	ErrSynthesisUnavailable = errors.New("synthesis service unavailable")
)
