package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/edgelog/internal/edgelog/edge"
	"github.com/kolkov/edgelog/internal/edgelog/resolve"
)

func TestLifecycle(t *testing.T) {
	s := New()
	assert.Equal(t, Uninitialized, s.State())
	assert.Nil(t, s.NewShard(1), "no shards before Init")

	require.True(t, s.Init(0))
	assert.Equal(t, Active, s.State())

	shard := s.NewShard(1)
	require.NotNil(t, shard)
	shard.Append(edge.Edge{Prev: 0, Cur: 10})

	var got Snapshot
	ran, err := s.Teardown(func(snap Snapshot) error {
		assert.Equal(t, Draining, s.State())
		got = snap
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, Released, s.State())
	assert.Equal(t, 1, got.Edges())
	assert.Zero(t, shard.Len(), "shards are released after drain")
}

// TestInitIdempotent verifies that a second Init neither reallocates nor
// changes state.
func TestInitIdempotent(t *testing.T) {
	s := New()
	require.True(t, s.Init(0))
	shard := s.NewShard(1)
	require.NotNil(t, shard)

	assert.False(t, s.Init(0))
	assert.False(t, s.Init(100))
	assert.Equal(t, Active, s.State())
	assert.Equal(t, uint32(1), s.Allocations())
	assert.Equal(t, 1, s.Goroutines(), "registry survives a second Init")
}

// TestTeardownTwice verifies the second teardown is a no-op.
func TestTeardownTwice(t *testing.T) {
	s := New()
	s.Init(0)

	drains := 0
	drain := func(Snapshot) error {
		drains++
		return nil
	}

	ran, err := s.Teardown(drain)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = s.Teardown(drain)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 1, drains)
	assert.Equal(t, Released, s.State())

	// Init does not resurrect a released store.
	assert.False(t, s.Init(0))
	assert.Nil(t, s.NewShard(2))
}

// TestTeardownUninitialized verifies teardown of a store that was never
// used is safe and skips the drain.
func TestTeardownUninitialized(t *testing.T) {
	s := New()
	ran, err := s.Teardown(func(Snapshot) error {
		t.Fatal("drain called on an uninitialized store")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, Released, s.State())
}

func TestTeardownDrainError(t *testing.T) {
	s := New()
	s.Init(0)
	boom := errors.New("disk full")

	_, err := s.Teardown(func(Snapshot) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Released, s.State(), "a failed drain still releases")
}

func TestTeardownNilDrain(t *testing.T) {
	s := New()
	s.Init(0)
	ran, err := s.Teardown(nil)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, Released, s.State())
}

// TestModuleFirstWriterWins verifies concurrent SetModule keeps exactly one
// value.
func TestModuleFirstWriterWins(t *testing.T) {
	s := New()
	assert.False(t, s.HasModule())
	assert.Equal(t, resolve.Module{}, s.Module())

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.SetModule(resolve.Module{Base: 0x400000, Path: "/bin/app"}) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.True(t, s.HasModule())
	assert.Equal(t, resolve.Module{Base: 0x400000, Path: "/bin/app"}, s.Module())

	assert.False(t, s.SetModule(resolve.Module{Base: 1}))
	assert.Equal(t, uintptr(0x400000), s.Module().Base)
}

func TestSnapshotSkipsEmptyShards(t *testing.T) {
	s := New()
	s.Init(0)
	s.NewShard(1)
	busy := s.NewShard(2)
	busy.Append(edge.Edge{Cur: 1})
	busy.Append(edge.Edge{Prev: 1, Cur: 2})
	s.SetModule(resolve.Module{Base: 42})

	_, err := s.Teardown(func(snap Snapshot) error {
		require.Len(t, snap.Shards, 1)
		assert.Equal(t, 2, snap.Edges())
		assert.Equal(t, uintptr(42), snap.Module.Base)
		return nil
	})
	require.NoError(t, err)
}

func TestBudgetDrops(t *testing.T) {
	s := New()
	s.Init(3)
	sh := s.NewShard(1)
	for i := 0; i < 5; i++ {
		sh.Append(edge.Edge{Cur: uintptr(i)})
	}
	assert.Equal(t, uint64(2), s.Dropped())

	_, err := s.Teardown(func(snap Snapshot) error {
		assert.Equal(t, 3, snap.Edges())
		assert.Equal(t, uint64(2), snap.Dropped)
		return nil
	})
	require.NoError(t, err)
}

func TestReset(t *testing.T) {
	s := New()
	s.Init(0)
	s.SetModule(resolve.Module{Base: 1})
	_, _ = s.Teardown(nil)

	s.Reset()
	assert.Equal(t, Uninitialized, s.State())
	assert.False(t, s.HasModule())
	assert.True(t, s.Init(0))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "draining", Draining.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestBudgetShared(t *testing.T) {
	s := New()
	assert.Nil(t, s.Budget())

	s.Init(2)
	b := s.Budget()
	require.NotNil(t, b)
	assert.Equal(t, uint64(2), b.Limit())

	b.Drop()
	assert.Equal(t, uint64(1), s.Dropped(), "drops outside shards are reported by the store")
}
