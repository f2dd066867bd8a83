// Package goroutine holds per-goroutine tracing state.
//
// Go has no thread-local storage, so the compact backend keys a Context by
// goroutine id, the same way a per-thread variable would be keyed by thread.
// Goroutine ids are never reused within a process, so a Context never
// outlives the meaning of its key.
//
// The Context carries the Cursor: the address recorded by the goroutine's
// previous instrumentation call. Every new call forms the edge
// (Cursor, current) and then moves the Cursor to current.
package goroutine
