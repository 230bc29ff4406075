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


// Package cluster groups embedded items by cosine similarity and
// collapses near-duplicates inside each group.
//
// The algorithm is a deterministic greedy pass: items are processed in
// (timestamp, source_id, item_id) order, each unassigned item seeds a
// group and absorbs later unassigned items whose similarity to the seed
// meets MinSim. Within a group, pairs above the stricter DedupSim
// collapse; the earliest-timestamped copy survives as a citation and
// the rest are recorded as duplicates with a back-reference. Groups are
// ranked by total member count descending, earliest timestamp ascending
// on ties, and capped at MaxGroups.
//
// Given the same vectors and thresholds, membership and ranking are
// identical across runs.
package cluster
