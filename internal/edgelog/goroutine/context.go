package goroutine

import (
	"github.com/kolkov/edgelog/internal/edgelog/buffer"
	"github.com/kolkov/edgelog/internal/edgelog/edge"
)

// Context is the tracing state of a single goroutine.
//
// Each goroutine has its own Context holding the Cursor (the address of the
// most recently recorded point) and, in the compact backend, the goroutine's
// edge buffer. A Context is owned exclusively by its goroutine and is never
// written by any other goroutine.
//
// Invariant: every edge produced by Advance has Prev equal to the value of
// Prev immediately before the call, and Prev equals the edge's Cur after it.
type Context struct {
	// GID is the goroutine id this context belongs to.
	GID int64

	// Prev is the Cursor. It starts at zero (the sentinel) for every
	// goroutine.
	Prev uintptr

	// Shard buffers this goroutine's edges. It is nil when registration
	// failed.
	Shard *buffer.Shard
}

// Alloc creates the context of goroutine gid. shard may be nil.
//
// Example:
//
//	ctx := Alloc(5, nil)
//	// ctx.GID = 5
//	// ctx.Prev = 0 (sentinel)
func Alloc(gid int64, shard *buffer.Shard) *Context {
	return &Context{
		GID:   gid,
		Shard: shard,
	}
}

// Advance moves the cursor to cur and returns the edge that was taken.
//
// This is the hot path of every instrumentation call: it is a field read and
// a field write, with no allocation.
//
//go:nosplit
func (c *Context) Advance(cur uintptr) edge.Edge {
	e := edge.Edge{Prev: c.Prev, Cur: cur}
	c.Prev = cur
	return e
}

// Record advances the cursor and appends the resulting edge to the
// goroutine's shard. It returns false when the edge was dropped (no shard,
// or the buffer budget is exhausted). The cursor advances either way so
// that the next recorded edge still starts at the current point.
func (c *Context) Record(cur uintptr) bool {
	e := c.Advance(cur)
	if c.Shard == nil {
		return false
	}
	return c.Shard.Append(e)
}
