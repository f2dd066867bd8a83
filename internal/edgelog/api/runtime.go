// Package api implements the edge tracing runtime behind the public edgelog
// package.
//
// Instrumented code calls Log (or LogEdge) at every instrumentation site.
// These are the HOT PATHS: after a goroutine's first call they cost a
// goroutine id lookup, a sync.Map load and one buffer append (compact mode)
// or one locked line write (enriched mode). Once the edge budget is
// exhausted a compact call only counts the drop.
//
// Lifecycle:
//   - init() runs Init, so instrumentation needs no setup.
//   - Fini drains the trace and releases the store. It must run after
//     instrumented goroutines have stopped; edges recorded concurrently with
//     Fini may be lost.
//   - Calls after Fini are ignored.
//
// Nothing in this package panics or returns an error into the host program.
// Failures are reported through the diag logger on stderr.
package api

import (
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/kolkov/edgelog/internal/edgelog/config"
	"github.com/kolkov/edgelog/internal/edgelog/diag"
	"github.com/kolkov/edgelog/internal/edgelog/edge"
	"github.com/kolkov/edgelog/internal/edgelog/sitedepot"
	"github.com/kolkov/edgelog/internal/edgelog/store"
)

// Global runtime state.
var (
	// enabled gates the hot paths.
	enabled atomic.Bool

	// traceStore is the process trace store.
	traceStore = store.New()

	// current holds the configuration and backend of the active store. It is
	// nil before Init and after Fini.
	current atomic.Pointer[runtimeState]

	// initMu serializes Init, Fini and Reset.
	initMu sync.Mutex

	// written counts records (compact edges or enriched lines) written to
	// the trace sink. The compact header is not a record.
	written atomic.Int64

	// exit terminates the process. Tests replace it.
	exit = os.Exit
)

// runtimeState is what Init sets up for one Active period of the store.
type runtimeState struct {
	cfg     config.Config
	backend backend
}

func init() {
	enabled.Store(true)
	Init()
}

// Init reads the configuration and activates the trace store.
//
// Init is idempotent: it does nothing when the store is already Active, and
// nothing after Fini (a finished trace is not restarted).
func Init() {
	initMu.Lock()
	defer initMu.Unlock()

	if traceStore.State() != store.Uninitialized {
		return
	}

	cfg, err := config.Load()
	diag.SetDebug(cfg.Debug)
	if err != nil {
		diag.Warnf("invalid configuration, using defaults: %v", err)
	}

	if !traceStore.Init(cfg.MaxEdges) {
		return
	}
	st := &runtimeState{cfg: cfg}
	st.backend = newBackend(cfg, traceStore)
	current.Store(st)

	diag.Debugf("tracing started: mode=%s path=%q gzip=%t max_edges=%d",
		cfg.Mode, cfg.Path, cfg.Gzip, cfg.MaxEdges)
}

// Fini drains the trace to the configured destination and releases the
// store. Only the first call does anything.
func Fini() {
	initMu.Lock()
	defer initMu.Unlock()

	st := current.Swap(nil)
	var drain func(store.Snapshot) error
	if st != nil {
		drain = st.backend.drain
	}

	ran, err := traceStore.Teardown(drain)
	if err != nil {
		diag.Errorf("trace not written: %v", err)
	}
	if ran {
		diag.Debugf("tracing finished: %d records written", written.Load())
	}
}

// Exit finishes the trace and terminates the process with the given code.
// Use it instead of os.Exit, which skips deferred calls to Fini.
func Exit(code int) {
	Fini()
	exit(code)
}

// Reset discards all tracing state and returns the store to
// Uninitialized, so that the next Init reads the configuration again.
//
// Reset is for tests. It must not run concurrently with instrumented code.
func Reset() {
	initMu.Lock()
	defer initMu.Unlock()

	if st := current.Swap(nil); st != nil {
		if eb, ok := st.backend.(*enrichedBackend); ok {
			_ = eb.drain(store.Snapshot{})
		}
	}
	traceStore.Reset()
	sitedepot.Reset()
	written.Store(0)
	enabled.Store(true)
}

// Enable turns the hot paths on. Tracing is enabled by default.
func Enable() {
	enabled.Store(true)
}

// Disable turns the hot paths off. Calls made while disabled record
// nothing and do not move the goroutine's cursor.
func Disable() {
	enabled.Store(false)
}

// Log records the edge from the calling goroutine's previous point to the
// return address of this call.
//
//go:noinline
func Log() {
	record(callerPC(0))
}

// LogSkip is Log for wrappers: the recorded point is the return address
// skip frames above the caller of LogSkip.
//
//go:noinline
func LogSkip(skip int) {
	record(callerPC(skip))
}

// LogEdge records an edge with its source location and kind.
//
// The compact backend records a plain edge and ignores the metadata.
//
//go:noinline
func LogEdge(file, function string, line int, kind edge.Kind) {
	recordSite(callerPC(0), file, function, line, kind)
}

// LogEdgeSkip is LogEdge for wrappers, see LogSkip.
//
//go:noinline
func LogEdgeSkip(skip int, file, function string, line int, kind edge.Kind) {
	recordSite(callerPC(skip), file, function, line, kind)
}

func record(pc uintptr) {
	if !enabled.Load() {
		return
	}
	st := active()
	if st == nil {
		return
	}
	st.backend.record(pc)
}

func recordSite(pc uintptr, file, function string, line int, kind edge.Kind) {
	if !enabled.Load() {
		return
	}
	st := active()
	if st == nil {
		return
	}
	if !st.backend.wantsSites() {
		st.backend.record(pc)
		return
	}
	st.backend.recordSite(sitedepot.Intern(file, function, line, kind), pc)
}

// active returns the runtime state, initializing the store on first use
// after a Reset. It returns nil once the store has been torn down.
func active() *runtimeState {
	if st := current.Load(); st != nil {
		return st
	}
	if traceStore.State() != store.Uninitialized {
		return nil
	}
	Init()
	return current.Load()
}

// callerPC returns the return address skip frames above the caller of the
// function calling callerPC.
//
// runtime.Callers(skip+3) skips:
//   - runtime.Callers itself - 0
//   - callerPC - 1
//   - the entry point (Log, LogEdge, ...) - 2
//   - returns: the instrumented code - 3
//
//go:noinline
func callerPC(skip int) uintptr {
	var pcs [1]uintptr
	if runtime.Callers(skip+3, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}

// Stats is a snapshot of the runtime's counters.
type Stats struct {
	// Mode is the active backend, empty when the store is not Active.
	Mode config.Mode

	// State is the store's lifecycle state.
	State store.State

	// Goroutines is the number of goroutines with a registered buffer.
	Goroutines int

	// Dropped counts edges rejected by the buffer budget.
	Dropped uint64

	// Written counts records written to the trace destination: edges in
	// compact mode, lines in enriched mode. The compact header is not
	// counted.
	Written int64

	// Sites is the number of distinct enriched call sites seen.
	Sites int

	// Enabled reports whether the hot paths are on.
	Enabled bool
}

// GetStats returns the current counters.
func GetStats() Stats {
	s := Stats{
		State:      traceStore.State(),
		Goroutines: traceStore.Goroutines(),
		Dropped:    traceStore.Dropped(),
		Written:    written.Load(),
		Sites:      sitedepot.Stats(),
		Enabled:    enabled.Load(),
	}
	if st := current.Load(); st != nil {
		s.Mode = st.cfg.Mode
	}
	return s
}
