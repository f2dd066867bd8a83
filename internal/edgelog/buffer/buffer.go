// Package buffer implements the per-goroutine edge buffers of the compact
// tracing backend.
//
// Each goroutine that records an edge owns exactly one Shard. A Shard is
// appended to only by its owner, so Append takes no lock. Shards are read
// once, at drain time, after instrumented goroutines have stopped calling
// into the runtime.
//
// Memory use across all shards is bounded by a shared Budget. When the
// budget is exhausted further edges are dropped (and counted) instead of
// growing without limit: tracing must never take the host program down.
// A shard allocates no storage until its first edge is accepted, so shards
// of goroutines whose edges were all dropped cost only their header.
package buffer

import (
	"sync/atomic"

	"github.com/kolkov/edgelog/internal/edgelog/edge"
)

// initialCapacity is the capacity a shard allocates on its first accepted
// edge. Growth afterwards follows the usual amortized slice doubling.
const initialCapacity = 256

// Budget limits the number of edges buffered by all shards together.
//
// A zero limit means unlimited. Budget is safe for concurrent use.
type Budget struct {
	limit    uint64
	reserved atomic.Uint64
	dropped  atomic.Uint64
}

// NewBudget returns a budget allowing at most limit edges (0 = unlimited).
func NewBudget(limit uint64) *Budget {
	return &Budget{limit: limit}
}

// reserve claims room for one edge. It returns false when the budget is
// exhausted, in which case the drop is recorded.
func (b *Budget) reserve() bool {
	if b == nil || b.limit == 0 {
		return true
	}
	if b.reserved.Add(1) > b.limit {
		b.dropped.Add(1)
		return false
	}
	return true
}

// Exhausted reports whether every edge the budget allows has been claimed.
// An unlimited budget is never exhausted.
func (b *Budget) Exhausted() bool {
	if b == nil || b.limit == 0 {
		return false
	}
	return b.reserved.Load() >= b.limit
}

// Drop counts an edge rejected before reaching a shard.
func (b *Budget) Drop() {
	if b != nil {
		b.dropped.Add(1)
	}
}

// Dropped returns the number of edges rejected because the budget ran out.
func (b *Budget) Dropped() uint64 {
	if b == nil {
		return 0
	}
	return b.dropped.Load()
}

// Limit returns the configured limit (0 = unlimited).
func (b *Budget) Limit() uint64 {
	if b == nil {
		return 0
	}
	return b.limit
}

// Shard is the edge buffer of a single goroutine.
type Shard struct {
	// GID is the id of the owning goroutine.
	GID int64

	edges  []edge.Edge
	budget *Budget
}

// NewShard allocates a shard for goroutine gid charged against budget.
// A nil budget means unlimited.
func NewShard(gid int64, budget *Budget) *Shard {
	return &Shard{GID: gid, budget: budget}
}

// Append records e. It returns false if the edge was dropped.
//
// Append must only be called by the owning goroutine.
func (s *Shard) Append(e edge.Edge) bool {
	if !s.budget.reserve() {
		return false
	}
	if s.edges == nil {
		s.edges = make([]edge.Edge, 0, initialCapacity)
	}
	s.edges = append(s.edges, e)
	return true
}

// Len returns the number of buffered edges.
func (s *Shard) Len() int {
	return len(s.edges)
}

// Edges returns the buffered edges in recording order. The returned slice
// aliases the shard's storage and must not be modified.
func (s *Shard) Edges() []edge.Edge {
	return s.edges
}

// Release drops the shard's storage. The shard records nothing afterwards
// that would be observed by a drain.
func (s *Shard) Release() {
	s.edges = nil
}
