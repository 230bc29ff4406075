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


// Package pipeline sequences a run through its stages: fetch,
// translate, embed, cluster, build, publish.
//
// A stage starts only after the prior stage has processed its entire
// eligible set. Within a stage, items are processed on a bounded worker
// pool and fail independently: transient external failures are retried
// with exponential backoff, and items whose retries are exhausted stay
// at their prior stage, eligible for the next run. The stop signal is
// checked between items, never mid-item.
//
// All run state lives in a RunReport scoped to one Run call; the
// Orchestrator itself holds only configuration and collaborators and is
// reusable across runs.
package pipeline
