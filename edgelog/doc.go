// Package edgelog records every control-flow edge a Go program takes and
// writes an exact trace when the program finishes.
//
// An instrumentation pass (not part of this module) inserts a call at each
// point of interest: function entries, branch targets, returns. At run time
// each call records the edge from the goroutine's previous point to the
// current one. Nothing is sampled or aggregated.
//
// # Quick Start
//
//	package main
//
//	import "github.com/kolkov/edgelog/edgelog"
//
//	func main() {
//		defer edgelog.Fini()
//
//		edgelog.Log()
//		work()
//	}
//
// Run the instrumented program with a destination:
//
//	$ EDGE_LOG_PATH=trace.log ./myprogram
//	$ edgelog summarize trace.log
//
// # Configuration
//
// The runtime reads its configuration from the environment once, when the
// package initializes:
//
//	EDGE_LOG_PATH       trace destination; "-" writes to stderr; unset: no trace
//	EDGE_LOG_GZIP       present (and not 0/false/no/off): gzip the trace
//	EDGE_LOG_MODE       compact (default) or enriched
//	EDGE_LOG_MAX_EDGES  maximum buffered edges in compact mode, 0 = unlimited
//	EDGE_LOG_DEBUG      print debug diagnostics on stderr
//	EDGE_LOG_CONFIG     file with "path trace.log"-style lines for the above
//
// Environment variables take precedence over the config file. Invalid
// values fall back to the defaults with a warning on stderr.
//
// # Trace Formats
//
// The compact backend buffers edges per goroutine and writes them from
// Fini. The first line names the program's load address and path, then one
// line per edge with absolute addresses in decimal:
//
//	base_addr,4194304,/usr/local/bin/server
//	0,4735121
//	4735121,4735380
//
// Each goroutine's edges are contiguous and in order; the first edge of a
// goroutine starts at 0. Addresses minus the base are stable across runs.
//
// The enriched backend writes one line per call as it happens, serialized
// across goroutines:
//
//	[server.go:(*Server).Serve:42] conditional branch @0x4a3f10
//
// Log derives file, function and line from the call site; the kind is
// "unknown edge". Unknown lines print as "?".
//
// # Lifecycle
//
// Fini must run after instrumented goroutines stop calling Log; edges
// recorded concurrently with Fini may be missing from the trace. Programs
// that leave through os.Exit should call [Exit] instead.
//
// # Errors
//
// The runtime never panics or returns errors into the traced program. A
// destination that cannot be opened is reported on stderr and the trace is
// skipped. In compact mode, edges beyond EDGE_LOG_MAX_EDGES are dropped and
// counted in [GetStats].
//
// # Examples
//
//   - [Example] - Basic tracing
//   - [Example_enriched] - Recording edge kinds
package edgelog
