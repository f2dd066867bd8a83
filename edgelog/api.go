// Package edgelog provides the public API of the edge tracing runtime.
//
// See doc.go for detailed documentation and examples.
package edgelog

import (
	"github.com/kolkov/edgelog/internal/edgelog/api"
	"github.com/kolkov/edgelog/internal/edgelog/config"
	"github.com/kolkov/edgelog/internal/edgelog/edge"
	"github.com/kolkov/edgelog/internal/edgelog/store"
)

// Kind classifies a control-flow edge recorded with LogEdge.
type Kind = edge.Kind

// Edge kinds.
const (
	DirectCall          = edge.DirectCall
	IndirectCall        = edge.IndirectCall
	Return              = edge.Return
	ConditionalBranch   = edge.ConditionalBranch
	UnconditionalBranch = edge.UnconditionalBranch
	Switch              = edge.Switch
	Unreachable         = edge.Unreachable
	Unknown             = edge.Unknown
)

// Mode is a tracing backend, selected with EDGE_LOG_MODE.
type Mode = config.Mode

// Backends.
const (
	ModeCompact  = config.ModeCompact
	ModeEnriched = config.ModeEnriched
)

// State is the lifecycle state of the trace store.
type State = store.State

// Store states.
const (
	StateUninitialized = store.Uninitialized
	StateActive        = store.Active
	StateDraining      = store.Draining
	StateReleased      = store.Released
)

// Init initializes the tracing runtime.
//
// Importing the package already does this, so calling Init is optional.
// Init is safe to call multiple times (subsequent calls are no-ops).
func Init() {
	api.Init()
}

// Fini writes the trace and releases the runtime.
//
// Call it once at program exit, after instrumented goroutines are done:
//
//	func main() {
//		defer edgelog.Fini()
//		// ... rest of program
//	}
//
// Only the first call has any effect. Calls to Log after Fini are ignored.
func Fini() {
	api.Fini()
}

// Exit calls Fini and then terminates the program with the given status
// code. Use it in place of os.Exit in instrumented programs.
func Exit(code int) {
	api.Exit(code)
}

// Log records the edge from the calling goroutine's previous
// instrumentation point to this call site.
//
// The instrumentation pass inserts one call per site:
//
//	// Original code:
//	if ok {
//		handle()
//	}
//
//	// Instrumented code:
//	if ok {
//		edgelog.Log()
//		handle()
//	}
//
// Log never panics and never blocks on I/O in the default compact mode.
//
//go:noinline
func Log() {
	api.LogSkip(1)
}

// LogEdge records an edge together with its source location and kind.
// Only the enriched backend writes the metadata; the compact backend
// records the same edge Log would.
//
//	edgelog.LogEdge("server.go", "(*Server).Serve", 42, edgelog.ConditionalBranch)
//
// A negative line means unknown.
//
//go:noinline
func LogEdge(file, function string, line int, kind Kind) {
	api.LogEdgeSkip(1, file, function, line, kind)
}

// Enable turns recording back on after Disable.
func Enable() {
	api.Enable()
}

// Disable stops recording until Enable is called. Calls made while
// disabled leave no trace and do not move the goroutine's cursor.
func Disable() {
	api.Disable()
}
