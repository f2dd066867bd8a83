// Package resolve attributes return addresses to the loaded module that
// contains them, and to source locations.
//
// Module resolution is what makes a trace usable across runs: with address
// space layout randomization the absolute addresses change every run, but
// address - Module.Base does not. On Linux the module table is read from
// /proc/self/maps. Other platforms report every address as unknown.
//
// Resolution never fails towards the caller: an address that belongs to no
// known module yields the zero Module.
package resolve

import (
	"errors"
	"sync"
)

// ErrUnsupported is returned by readMappings on platforms without a
// process maps interface.
var ErrUnsupported = errors.New("module table not available on this platform")

// Module identifies the loaded object containing an address.
type Module struct {
	// Base is the load address of the object, 0 when unknown.
	Base uintptr
	// Path is the file the object was loaded from, empty when unknown.
	Path string
}

// Known reports whether the module was resolved.
func (m Module) Known() bool {
	return m.Base != 0 || m.Path != ""
}

// Resolver looks addresses up in a snapshot of the module table.
//
// The snapshot is taken on first use and refreshed once when an address
// misses, covering objects loaded after the first lookup. Resolver is safe
// for concurrent use.
type Resolver struct {
	mu       sync.Mutex
	mappings []Mapping
	loaded   bool

	// read returns the current module table. Tests replace it.
	read func() ([]Mapping, error)
}

// NewResolver returns a resolver reading the module table of the current
// process.
func NewResolver() *Resolver {
	return &Resolver{read: readMappings}
}

// Resolve returns the module containing addr, or the zero Module.
func (r *Resolver) Resolve(addr uintptr) Module {
	if addr == 0 {
		return Module{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		r.reload()
	}
	if m := findModule(r.mappings, uint64(addr)); m.Known() {
		return m
	}

	// The object may have been loaded after the snapshot.
	r.reload()
	return findModule(r.mappings, uint64(addr))
}

func (r *Resolver) reload() {
	r.loaded = true
	mappings, err := r.read()
	if err != nil {
		r.mappings = nil
		return
	}
	r.mappings = mappings
}

var defaultResolver = NewResolver()

// Resolve looks addr up in the current process's module table.
func Resolve(addr uintptr) Module {
	return defaultResolver.Resolve(addr)
}
