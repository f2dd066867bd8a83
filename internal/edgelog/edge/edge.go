// Package edge defines the values recorded by the edge tracing runtime.
//
// Two representations exist:
//   - Edge: a (previous, current) pair of return addresses, used by the
//     compact buffered backend.
//   - Record: call-site metadata supplied by the instrumentation pass
//     (source file, function, line, edge kind) plus the return address,
//     used by the enriched eager backend.
//
// Both are plain values. Once recorded they are never mutated.
package edge

// Edge is a single recorded transition between two instrumentation points.
//
// Prev is the address recorded by the previous instrumentation call on the
// same goroutine (zero for the first call), Cur is the return address of the
// call that produced this edge.
type Edge struct {
	Prev uintptr
	Cur  uintptr
}

// UnknownLine marks a Record whose source line is not known.
const UnknownLine = -1

// Record is an enriched edge: the call site describes itself instead of
// relying purely on address deltas.
type Record struct {
	File     string
	Function string
	// Line is the source line, or a negative value when unknown.
	Line int
	Kind Kind
	// PC is the return address of the instrumentation call.
	PC uintptr
}

// HasLine reports whether the record carries a known source line.
func (r Record) HasLine() bool {
	return r.Line >= 0
}
