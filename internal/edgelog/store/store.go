// Package store implements the process-wide trace store and its lifecycle.
//
// The store moves through four states, each transition happening at most
// once:
//
//	Uninitialized --Init--> Active --Teardown--> Draining --> Released
//
// Init is idempotent: a second call on an Active store does nothing.
// Teardown is idempotent too: only the first call drains, later calls (and
// calls on a store that never became Active) return immediately.
//
// While Active, goroutines register their own shard once and append to it
// without synchronization. The store only reads shards while Draining, by
// which point the host has stopped calling instrumented code.
package store

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kolkov/edgelog/internal/edgelog/buffer"
	"github.com/kolkov/edgelog/internal/edgelog/edge"
	"github.com/kolkov/edgelog/internal/edgelog/resolve"
)

// State is a lifecycle state of the Store.
type State int32

const (
	Uninitialized State = iota
	Active
	Draining
	Released
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Draining:
		return "draining"
	case Released:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Snapshot is what a drain function receives: everything recorded while
// the store was Active.
type Snapshot struct {
	// Module is the resolved module of the traced code (zero if never
	// resolved).
	Module resolve.Module

	// Shards holds one edge sequence per goroutine, in registration order.
	Shards [][]edge.Edge

	// Dropped counts edges rejected by the buffer budget.
	Dropped uint64
}

// Edges returns the total number of edges in the snapshot.
func (s Snapshot) Edges() int {
	n := 0
	for _, sh := range s.Shards {
		n += len(sh)
	}
	return n
}

// Store is the process trace store.
type Store struct {
	state atomic.Int32

	mu     sync.Mutex
	shards []*buffer.Shard
	budget *buffer.Budget

	// module is written once, first writer wins.
	module atomic.Pointer[resolve.Module]

	// allocs counts backing allocations, so that double initialization is
	// observable.
	allocs atomic.Uint32
}

// New returns an Uninitialized store.
func New() *Store {
	return &Store{}
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	return State(s.state.Load())
}

// IsActive reports whether the store accepts edges.
func (s *Store) IsActive() bool {
	return s.State() == Active
}

// Init allocates the store's backing registry with the given edge budget
// (0 = unlimited) and makes it Active. It reports whether this call did the
// transition; on an Active, Draining or Released store it is a no-op.
func (s *Store) Init(maxEdges uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Uninitialized {
		return false
	}
	s.shards = make([]*buffer.Shard, 0, 16)
	s.budget = buffer.NewBudget(maxEdges)
	if !s.state.CompareAndSwap(int32(Uninitialized), int32(Active)) {
		// Torn down concurrently.
		s.shards = nil
		return false
	}
	s.allocs.Add(1)
	return true
}

// Allocations returns how many times the backing registry was allocated.
func (s *Store) Allocations() uint32 {
	return s.allocs.Load()
}

// NewShard creates and registers the shard of goroutine gid. It returns nil
// if the store is not Active.
func (s *Store) NewShard(gid int64) *buffer.Shard {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.State() != Active {
		return nil
	}
	shard := buffer.NewShard(gid, s.budget)
	s.shards = append(s.shards, shard)
	return shard
}

// Goroutines returns the number of registered shards.
func (s *Store) Goroutines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shards)
}

// Dropped returns the number of edges rejected by the budget so far.
func (s *Store) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget.Dropped()
}

// Budget returns the edge budget of the current Active period, nil before
// Init.
func (s *Store) Budget() *buffer.Budget {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget
}

// HasModule reports whether the module has been resolved.
func (s *Store) HasModule() bool {
	return s.module.Load() != nil
}

// SetModule caches m as the resolved module unless one is already cached.
// Concurrent callers race benignly: they compute the same value and only
// the first store is kept. It reports whether m was stored.
func (s *Store) SetModule(m resolve.Module) bool {
	return s.module.CompareAndSwap(nil, &m)
}

// Module returns the cached module, or the zero Module.
func (s *Store) Module() resolve.Module {
	if m := s.module.Load(); m != nil {
		return *m
	}
	return resolve.Module{}
}

// Teardown drains and releases the store.
//
// Only the first call on an Active store runs drain; it returns drain's
// error. Every other call, including one on a store that never became
// Active, is a no-op returning nil. After Teardown the store is Released.
func (s *Store) Teardown(drain func(Snapshot) error) (bool, error) {
	if !s.state.CompareAndSwap(int32(Active), int32(Draining)) {
		// Never initialized: nothing to drain, but close the store so a
		// late instrumentation call cannot bring it back.
		s.state.CompareAndSwap(int32(Uninitialized), int32(Released))
		return false, nil
	}

	s.mu.Lock()
	shards := s.shards
	snap := Snapshot{
		Module:  s.Module(),
		Shards:  make([][]edge.Edge, 0, len(shards)),
		Dropped: s.budget.Dropped(),
	}
	s.mu.Unlock()

	for _, sh := range shards {
		if sh.Len() > 0 {
			snap.Shards = append(snap.Shards, sh.Edges())
		}
	}

	var err error
	if drain != nil {
		err = drain(snap)
	}

	s.mu.Lock()
	for _, sh := range shards {
		sh.Release()
	}
	s.shards = nil
	s.state.Store(int32(Released))
	s.mu.Unlock()

	return true, err
}

// Reset returns the store to Uninitialized, discarding everything.
//
// Reset is for tests: it must not run concurrently with instrumentation.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shards = nil
	s.budget = nil
	s.module.Store(nil)
	s.allocs.Store(0)
	s.state.Store(int32(Uninitialized))
}
