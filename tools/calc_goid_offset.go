//go:build ignore

// This tool prints the offset of the goid field in runtime.g, the value of
// goidOffset in internal/edgelog/api/goid_fast.go.
//
// Run with: go run tools/calc_goid_offset.go
//
// The struct below mirrors runtime.g (runtime/runtime2.go) up to goid for
// Go 1.23-1.25 on 64-bit platforms. Check it against the runtime sources
// before enabling the fast path for a new Go release.
package main

import (
	"fmt"
	"runtime"
	"unsafe"
)

type g struct {
	stack        stack          // offset 0
	stackguard0  uintptr        // offset 16
	stackguard1  uintptr        // offset 24
	_panic       *int           // offset 32
	_defer       *int           // offset 40
	m            *int           // offset 48
	sched        gobuf          // offset 56
	syscallsp    uintptr        // offset 104
	syscallpc    uintptr        // offset 112
	syscallbp    uintptr        // offset 120
	stktopsp     uintptr        // offset 128
	param        unsafe.Pointer // offset 136
	atomicstatus struct {
		v uint32
	} // offset 144
	stackLock uint32 // offset 148
	goid      uint64 // offset 152
}

type stack struct {
	lo uintptr
	hi uintptr
}

type gobuf struct {
	sp   uintptr
	pc   uintptr
	g    uintptr
	ctxt unsafe.Pointer
	lr   uintptr
	bp   uintptr
}

func main() {
	var g g

	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("Architecture: %s\n", runtime.GOARCH)
	fmt.Printf("goid offset: %d bytes\n", unsafe.Offsetof(g.goid))
	fmt.Printf("\nUse in goid_fast.go: const goidOffset = %d\n", unsafe.Offsetof(g.goid))
}
