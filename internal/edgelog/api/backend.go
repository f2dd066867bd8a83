package api

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kolkov/edgelog/internal/edgelog/buffer"
	"github.com/kolkov/edgelog/internal/edgelog/config"
	"github.com/kolkov/edgelog/internal/edgelog/diag"
	"github.com/kolkov/edgelog/internal/edgelog/edge"
	"github.com/kolkov/edgelog/internal/edgelog/goroutine"
	"github.com/kolkov/edgelog/internal/edgelog/resolve"
	"github.com/kolkov/edgelog/internal/edgelog/sitedepot"
	"github.com/kolkov/edgelog/internal/edgelog/store"
	"github.com/kolkov/edgelog/internal/edgelog/writer"
)

// backend is the tracing strategy, chosen once at Init from EDGE_LOG_MODE.
type backend interface {
	// record handles a call that only carries its return address.
	record(pc uintptr)

	// recordSite handles a call that describes its own site.
	recordSite(site *sitedepot.Site, pc uintptr)

	// wantsSites reports whether recordSite uses the site metadata. When
	// false the entry point skips interning and calls record instead.
	wantsSites() bool

	// drain persists the trace. It runs exactly once, during teardown.
	drain(snap store.Snapshot) error
}

func newBackend(cfg config.Config, st *store.Store) backend {
	if cfg.Mode == config.ModeEnriched {
		return newEnrichedBackend(cfg)
	}
	return newCompactBackend(cfg, st)
}

// compactBackend buffers (prev, cur) pairs per goroutine and writes them
// all at teardown.
type compactBackend struct {
	cfg    config.Config
	store  *store.Store
	budget *buffer.Budget

	// resolve finds the traced module. Tests replace it.
	resolve func(uintptr) resolve.Module

	// contexts maps goroutine IDs to their *goroutine.Context.
	// Entries are never removed: goroutine ids are not reused, and shards
	// must outlive their goroutine until the drain.
	contexts sync.Map
}

func newCompactBackend(cfg config.Config, st *store.Store) *compactBackend {
	return &compactBackend{
		cfg:     cfg,
		store:   st,
		budget:  st.Budget(),
		resolve: resolve.Resolve,
	}
}

// context returns the Context of the calling goroutine.
//
// Performance:
//   - Cached (most calls): one goroutine id read and a sync.Map load.
//   - First call per goroutine: allocates the context and registers a shard.
func (b *compactBackend) context() *goroutine.Context {
	gid := getGoroutineID()
	if v, ok := b.contexts.Load(gid); ok {
		return v.(*goroutine.Context)
	}
	return b.newContext(gid)
}

// newContext is the slow path of context. A failure here degrades to a
// context without a buffer rather than reaching the host.
func (b *compactBackend) newContext(gid int64) (ctx *goroutine.Context) {
	defer func() {
		if r := recover(); r != nil {
			diag.Errorf("goroutine %d: tracing disabled: %v", gid, r)
			ctx = goroutine.Alloc(gid, nil)
			b.contexts.Store(gid, ctx)
		}
	}()

	ctx = goroutine.Alloc(gid, b.store.NewShard(gid))
	b.contexts.Store(gid, ctx)
	return ctx
}

func (b *compactBackend) record(pc uintptr) {
	if b.budget.Exhausted() {
		// Nothing more can be buffered: drop before a goroutine seen for
		// the first time gets a context and shard.
		b.budget.Drop()
		return
	}
	if !b.store.HasModule() {
		// Resolved once per process. Concurrent first edges may all
		// resolve; the store keeps the first result.
		b.store.SetModule(b.resolve(pc))
	}
	b.context().Record(pc)
}

func (b *compactBackend) recordSite(_ *sitedepot.Site, pc uintptr) {
	b.record(pc)
}

func (b *compactBackend) wantsSites() bool {
	return false
}

func (b *compactBackend) drain(snap store.Snapshot) error {
	if snap.Dropped > 0 {
		diag.Warnf("edge budget of %d exhausted, %d edges dropped", b.cfg.MaxEdges, snap.Dropped)
	}
	if !b.cfg.HasPath() {
		diag.Debugf("%s_PATH not set, discarding %d edges", config.EnvPrefix, snap.Edges())
		return nil
	}

	sink, err := writer.Open(b.cfg)
	if err != nil {
		return fmt.Errorf("open %s: %w", b.cfg.Path, err)
	}
	n, err := writer.WriteCompact(sink, snap.Module, snap.Shards)
	if closeErr := sink.Close(); err == nil {
		err = closeErr
	}
	written.Add(int64(n))
	if err != nil {
		return fmt.Errorf("write %s: %w", b.cfg.Path, err)
	}
	diag.Debugf("wrote %d edges from %d goroutines to %s", n, len(snap.Shards), b.cfg.Path)
	return nil
}

// enrichedBackend writes one line per call, immediately. Calls from all
// goroutines are serialized on one sink, which gives a single global order
// and loses nothing if the process dies, at the cost of throughput.
//
// Records carry no previous point, so no per-goroutine state is kept.
type enrichedBackend struct {
	mu   sync.Mutex
	sink writer.Sink
	buf  []byte

	locator *resolve.Locator

	// failed is set after the first write error; the backend then stops
	// writing.
	failed atomic.Bool
}

func newEnrichedBackend(cfg config.Config) *enrichedBackend {
	b := &enrichedBackend{buf: make([]byte, 0, 256)}

	locator, err := resolve.NewLocator(resolve.DefaultLocatorCapacity)
	if err != nil {
		diag.Warnf("source locations disabled: %v", err)
	}
	b.locator = locator

	sink, err := writer.Open(cfg)
	switch {
	case errors.Is(err, writer.ErrNoPath):
		diag.Debugf("%s_PATH not set, enriched trace disabled", config.EnvPrefix)
	case err != nil:
		diag.Errorf("enriched trace disabled: %v", err)
	default:
		b.sink = sink
	}
	return b
}

func (b *enrichedBackend) record(pc uintptr) {
	loc := resolve.UnknownLocation
	if b.locator != nil {
		loc = b.locator.Locate(pc)
	}
	site := sitedepot.Intern(loc.File, loc.Function, loc.Line, edge.Unknown)
	b.recordSite(site, pc)
}

func (b *enrichedBackend) recordSite(site *sitedepot.Site, pc uintptr) {
	if b.failed.Load() {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sink == nil {
		return
	}

	b.buf = site.AppendLine(b.buf[:0], pc)
	err := b.sink.WriteLine(b.buf)
	if err == nil {
		err = b.sink.Flush()
	}
	if err != nil {
		b.fail(err)
		return
	}
	written.Add(1)
}

// fail stops tracing after a write error. Callers hold b.mu.
func (b *enrichedBackend) fail(err error) {
	b.failed.Store(true)
	diag.Errorf("enriched trace stopped: %v", err)
	_ = b.sink.Close()
	b.sink = nil
}

func (b *enrichedBackend) wantsSites() bool {
	return true
}

func (b *enrichedBackend) drain(store.Snapshot) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sink == nil {
		return nil
	}
	err := b.sink.Close()
	b.sink = nil
	if err != nil {
		return fmt.Errorf("close enriched trace: %w", err)
	}
	return nil
}
