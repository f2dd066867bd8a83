// Copyright 2025 The edgelog Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build go1.23 && !go1.26 && (amd64 || arm64)

// Fast goroutine ID extraction for amd64 and arm64 on Go 1.23-1.25.
//
// The g pointer comes from TLS (amd64) or the g register (arm64) through a
// small assembly stub; the goid is read at a fixed offset:
//
//	Field          Size    Offset
//	-----          ----    ------
//	stack          16      0
//	stackguard0    8       16
//	stackguard1    8       24
//	_panic         8       32
//	_defer         8       40
//	m              8       48
//	sched (gobuf)  48      56
//	syscallsp      8       104
//	syscallpc      8       112
//	syscallbp      8       120
//	stktopsp       8       128
//	param          8       136
//	atomicstatus   4       144
//	stackLock      4       148
//	goid           8       152  <- TARGET
//
// If the layout differs, the startup check in goid.go disables this path.

package api

import "unsafe"

const goidOffset = 152

// getg returns the current goroutine's g struct pointer.
// Implemented in goid_amd64.s and goid_arm64.s.
//
//go:noescape
func getg() uintptr

// getGoroutineIDFast reads the goid field of the current g.
//
//go:nosplit
//go:nocheckptr
func getGoroutineIDFast() int64 {
	gptr := getg()
	if gptr == 0 {
		return getGoroutineIDSlow()
	}

	//nolint:gosec // G103: Intentional unsafe pointer arithmetic for runtime access
	goid := *(*uint64)(unsafe.Pointer(gptr + goidOffset))

	//nolint:gosec // G115: goid values never exceed int64 max
	return int64(goid)
}
