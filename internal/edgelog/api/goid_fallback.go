// Copyright 2025 The edgelog Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !go1.23 || go1.26 || !(amd64 || arm64)

package api

// getGoroutineIDFast delegates to the slow path on platforms and Go
// versions without a verified runtime.g layout. The name is kept so the
// callers stay identical across build configurations.
func getGoroutineIDFast() int64 {
	return getGoroutineIDSlow()
}
