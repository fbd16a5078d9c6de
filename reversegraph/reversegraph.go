// Package reversegraph builds the on-demand child→parents multimap used
// when a game does not implement GetCanonicalParentPositions. It is built
// once per tier solve, during the scan phase, and popped exactly once per
// child by the frontier walker.
package reversegraph

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/tiergraph/solver/gameapi"
)

const shardCount = 64

type shard struct {
	sync.Mutex
	bags map[gameapi.TierPosition][]gameapi.Position
}

// ReverseGraph is a sharded, concurrency-safe multimap from child
// TierPosition to the bag of parent Positions within the tier currently
// being solved. Sharding by xxhash of the child key lets concurrent scan
// workers add to disjoint shards without contending on a single lock, the
// way transposition_table.go shards its table by hash.
type ReverseGraph struct {
	shards [shardCount]*shard
}

// New allocates an empty ReverseGraph sized for the child tiers that will
// be populated during the scan phase. childTiers is accepted for parity
// with the original construction contract (one sub-structure per child
// tier) but this implementation shares shards across all child tiers,
// keyed by the full TierPosition.
func New(childTiers []gameapi.Tier) *ReverseGraph {
	g := &ReverseGraph{}
	for i := range g.shards {
		g.shards[i] = &shard{bags: make(map[gameapi.TierPosition][]gameapi.Position)}
	}
	return g
}

func (g *ReverseGraph) shardFor(child gameapi.TierPosition) *shard {
	h := xxhash.New()
	var buf [16]byte
	putInt64(buf[0:8], int64(child.Tier))
	putInt64(buf[8:16], int64(child.Position))
	_, _ = h.Write(buf[:])
	return g.shards[h.Sum64()%uint64(shardCount)]
}

func putInt64(b []byte, v int64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// Add appends parent to child's parent bag.
func (g *ReverseGraph) Add(child gameapi.TierPosition, parent gameapi.Position) error {
	s := g.shardFor(child)
	s.Lock()
	defer s.Unlock()
	s.bags[child] = append(s.bags[child], parent)
	return nil
}

// PopParentsOf returns and removes child's parent bag. Intended to be
// called exactly once per child during frontier propagation.
func (g *ReverseGraph) PopParentsOf(child gameapi.TierPosition) []gameapi.Position {
	s := g.shardFor(child)
	s.Lock()
	defer s.Unlock()
	parents := s.bags[child]
	delete(s.bags, child)
	return parents
}

// Destroy releases all remaining bags. Safe to call on an already-emptied
// graph.
func (g *ReverseGraph) Destroy() {
	for _, s := range g.shards {
		s.Lock()
		s.bags = nil
		s.Unlock()
	}
}
