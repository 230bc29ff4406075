package cluster

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/poiesic/recap/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vecAt returns a 2D unit vector at the given angle in degrees, so the
// cosine similarity of two members equals the cosine of the angle
// between them.
func vecAt(deg float64) []float32 {
	rad := deg * math.Pi / 180
	return []float32{float32(math.Cos(rad)), float32(math.Sin(rad))}
}

func member(id string, minuteOffset int, deg float64) *Member {
	base := time.Date(2026, 8, 20, 8, 0, 0, 0, time.UTC)
	return &Member{
		Item: &core.Item{
			Key:       core.ItemKey{SourceID: "feed", ItemID: id},
			Timestamp: base.Add(time.Duration(minuteOffset) * time.Minute),
			RawText:   "item " + id,
		},
		Vector: vecAt(deg),
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.DedupSim = bad.MinSim
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MinSim = 0
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MaxGroups = 0
	assert.Error(t, bad.Validate())
}

func TestClusterEmptyWindow(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, engine.Cluster(nil))
}

func TestClusterSingletonDropped(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	groups := engine.Cluster([]*Member{member("only", 0, 0)})
	assert.Empty(t, groups)
}

func TestClusterGroupingAndDedup(t *testing.T) {
	// Ten items: three topics each carrying one near-duplicate pair,
	// plus two unrelated singletons. Angles are chosen so pair members
	// sit above the dedup threshold while the third topic member stays
	// between the grouping and dedup thresholds relative to its seed.
	members := []*Member{
		member("a1", 0, 0),
		member("a2", 1, 2),
		member("a3", 2, 28),
		member("b1", 3, 90),
		member("b2", 4, 92),
		member("b3", 5, 118),
		member("c1", 6, 180),
		member("c2", 7, 182),
		member("x1", 8, 270),
		member("x2", 9, 315),
	}

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	groups := engine.Cluster(members)

	require.Len(t, groups, 3)

	// Ranked by size descending, earliest timestamp on ties.
	assert.Equal(t, 3, groups[0].Size())
	assert.Equal(t, "a1", groups[0].Representative.Item.Key.ItemID)
	assert.Equal(t, 3, groups[1].Size())
	assert.Equal(t, "b1", groups[1].Representative.Item.Key.ItemID)
	assert.Equal(t, 2, groups[2].Size())
	assert.Equal(t, "c1", groups[2].Representative.Item.Key.ItemID)

	// Exactly one duplicate collapsed per topic, three in total, with
	// every input item preserved either as member or duplicate.
	totalDups := 0
	totalItems := 0
	for _, g := range groups {
		totalDups += len(g.Duplicates)
		totalItems += g.Size()
	}
	assert.Equal(t, 3, totalDups)
	assert.Equal(t, 8, totalItems)

	// The earliest-timestamped copy survives; the later one points back
	// at it.
	require.Len(t, groups[0].Duplicates, 1)
	dup := groups[0].Duplicates[0]
	assert.Equal(t, "a2", dup.Item.Key.ItemID)
	assert.Equal(t, "a1", dup.Survivor.ItemID)

	// Citations exclude duplicates.
	require.Len(t, groups[0].Members, 2)
	assert.Equal(t, "a1", groups[0].Members[0].Item.Key.ItemID)
	assert.Equal(t, "a3", groups[0].Members[1].Item.Key.ItemID)
}

func TestClusterDeterministicAcrossInputOrder(t *testing.T) {
	base := []*Member{
		member("a1", 0, 0),
		member("a2", 1, 2),
		member("a3", 2, 28),
		member("b1", 3, 90),
		member("b2", 4, 92),
		member("c1", 6, 180),
		member("c2", 7, 182),
	}

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	reference := engine.Cluster(base)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 10; trial++ {
		shuffled := make([]*Member, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := engine.Cluster(shuffled)
		require.Len(t, got, len(reference))
		for i := range reference {
			assert.Equal(t, reference[i].Representative.Item.Key, got[i].Representative.Item.Key)
			require.Len(t, got[i].Members, len(reference[i].Members))
			for j := range reference[i].Members {
				assert.Equal(t, reference[i].Members[j].Item.Key, got[i].Members[j].Item.Key)
			}
		}
	}
}

func TestClusterPartitionProperty(t *testing.T) {
	members := []*Member{
		member("a1", 0, 0),
		member("a2", 1, 10),
		member("a3", 2, 20),
		member("b1", 3, 100),
		member("b2", 4, 110),
		member("c1", 5, 200),
	}

	config := DefaultConfig()
	config.MinClusterSize = 1
	config.MaxGroups = 10
	engine, err := NewEngine(config)
	require.NoError(t, err)

	groups := engine.Cluster(members)

	seen := make(map[core.ItemKey]int)
	for _, g := range groups {
		for _, m := range g.Members {
			seen[m.Item.Key]++
		}
		for _, d := range g.Duplicates {
			seen[d.Item.Key]++
		}
	}
	require.Len(t, seen, len(members))
	for key, count := range seen {
		assert.Equal(t, 1, count, "item %s assigned more than once", key)
	}
}

func TestClusterMaxGroupsCap(t *testing.T) {
	var members []*Member
	// Seven well-separated pairs.
	for i := 0; i < 7; i++ {
		deg := float64(i) * 45
		members = append(members,
			member(string(rune('a'+i))+"1", i*10, deg),
			member(string(rune('a'+i))+"2", i*10+1, deg+1),
		)
	}

	config := DefaultConfig()
	config.MaxGroups = 5
	engine, err := NewEngine(config)
	require.NoError(t, err)

	groups := engine.Cluster(members)
	assert.Len(t, groups, 5)
}
