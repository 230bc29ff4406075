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


package cluster

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/poiesic/recap/core"
)

// Config holds the clustering thresholds and output bounds.
type Config struct {
	// MinSim is the minimum cosine similarity for two items to share a
	// group. Default: 0.85
	MinSim float64

	// DedupSim is the stricter similarity above which two items within a
	// group collapse into one citation. Must exceed MinSim. Default: 0.90
	DedupSim float64

	// MinClusterSize is the smallest group reported in the digest.
	// Smaller groups are treated as noise. Default: 2
	MinClusterSize int

	// MaxGroups caps the number of ranked groups returned. Default: 5
	MaxGroups int
}

// DefaultConfig returns the standard clustering configuration.
func DefaultConfig() Config {
	return Config{
		MinSim:         0.85,
		DedupSim:       0.90,
		MinClusterSize: 2,
		MaxGroups:      5,
	}
}

// Validate checks threshold ordering and bounds.
func (c Config) Validate() error {
	if c.MinSim <= 0 || c.MinSim >= 1 {
		return errors.New("cluster config: MinSim must be in (0, 1)")
	}
	if c.DedupSim <= c.MinSim || c.DedupSim > 1 {
		return errors.New("cluster config: DedupSim must be in (MinSim, 1]")
	}
	if c.MinClusterSize < 1 {
		return errors.New("cluster config: MinClusterSize must be at least 1")
	}
	if c.MaxGroups < 1 {
		return errors.New("cluster config: MaxGroups must be at least 1")
	}
	return nil
}

// Member pairs an item with its embedding vector for one run.
type Member struct {
	Item   *core.Item
	Vector []float32
}

// Duplicate records an item collapsed during intra-group dedup, with a
// back-reference to the member that survived as its citation.
type Duplicate struct {
	Item     *core.Item
	Survivor core.ItemKey
}

// Group is one similarity cluster after dedup and ranking.
type Group struct {
	// Representative anchors the group and supplies its title. It is the
	// earliest-timestamped surviving member.
	Representative *Member

	// Members are the surviving items ordered by timestamp then key.
	// The representative is Members[0].
	Members []*Member

	// Duplicates are the collapsed near-identical items, kept for
	// provenance but excluded from citations.
	Duplicates []Duplicate
}

// Size is the total member count before dedup, which is what the group
// is ranked by.
func (g *Group) Size() int {
	return len(g.Members) + len(g.Duplicates)
}

// Engine partitions embedded items into ranked similarity groups.
type Engine struct {
	config Config
	logger *slog.Logger
}

// NewEngine creates a clustering engine with the given configuration.
func NewEngine(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		config: config,
		logger: slog.Default().With("component", "cluster"),
	}, nil
}

// Cluster partitions the members into similarity groups, collapses
// near-duplicates within each group, and returns the groups ranked by
// size descending with earliest timestamp breaking ties, capped at
// MaxGroups. An empty input yields an empty result.
//
// The input is re-sorted by (timestamp, source_id, item_id) so the
// greedy pass and all tie-breaks are reproducible regardless of the
// caller's ordering.
func (e *Engine) Cluster(members []*Member) []*Group {
	if len(members) == 0 {
		return nil
	}

	ordered := make([]*Member, len(members))
	copy(ordered, members)
	slices.SortFunc(ordered, compareMembers)

	// Greedy pass: each unassigned item in order seeds a group and
	// absorbs every later unassigned item above MinSim.
	assigned := make([]bool, len(ordered))
	var raw [][]*Member
	for i, seed := range ordered {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		groupMembers := []*Member{seed}
		for j := i + 1; j < len(ordered); j++ {
			if assigned[j] {
				continue
			}
			if CosineSimilarity(seed.Vector, ordered[j].Vector) >= e.config.MinSim {
				assigned[j] = true
				groupMembers = append(groupMembers, ordered[j])
			}
		}
		raw = append(raw, groupMembers)
	}

	groups := make([]*Group, 0, len(raw))
	dropped := 0
	for _, groupMembers := range raw {
		group := e.dedup(groupMembers)
		if group.Size() < e.config.MinClusterSize {
			dropped++
			continue
		}
		groups = append(groups, group)
	}
	if dropped > 0 {
		e.logger.Debug("dropped low-signal groups", "count", dropped)
	}

	slices.SortFunc(groups, func(a, b *Group) int {
		if a.Size() != b.Size() {
			return b.Size() - a.Size()
		}
		if c := a.Representative.Item.Timestamp.Compare(b.Representative.Item.Timestamp); c != 0 {
			return c
		}
		return a.Representative.Item.Key.Compare(b.Representative.Item.Key)
	})

	if len(groups) > e.config.MaxGroups {
		groups = groups[:e.config.MaxGroups]
	}

	e.logger.Info("clustered window",
		"items", len(members),
		"groups", len(groups),
		"dropped", dropped)
	return groups
}

// dedup collapses members of one group whose pairwise similarity meets
// DedupSim. The earliest-timestamped member of each duplicate set
// survives as a citation; the rest are recorded against it.
func (e *Engine) dedup(groupMembers []*Member) *Group {
	group := &Group{}

	// Members arrive in (timestamp, key) order, so a linear scan against
	// earlier survivors always keeps the earliest copy.
	for _, candidate := range groupMembers {
		var survivor *Member
		for _, kept := range group.Members {
			if CosineSimilarity(kept.Vector, candidate.Vector) >= e.config.DedupSim {
				survivor = kept
				break
			}
		}
		if survivor != nil {
			group.Duplicates = append(group.Duplicates, Duplicate{
				Item:     candidate.Item,
				Survivor: survivor.Item.Key,
			})
			continue
		}
		group.Members = append(group.Members, candidate)
	}

	group.Representative = group.Members[0]
	return group
}

func compareMembers(a, b *Member) int {
	if c := a.Item.Timestamp.Compare(b.Item.Timestamp); c != 0 {
		return c
	}
	return a.Item.Key.Compare(b.Item.Key)
}
