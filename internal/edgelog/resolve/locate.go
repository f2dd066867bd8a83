package resolve

import (
	"encoding/binary"
	"runtime"

	lru "github.com/elastic/go-freelru"
	"github.com/zeebo/xxh3"
)

// DefaultLocatorCapacity bounds the number of distinct call sites
// remembered. Instrumented programs have a fixed number of call sites, so
// the cache reaches a steady state quickly.
const DefaultLocatorCapacity = 16384

// Location is the source position of a return address.
type Location struct {
	File     string
	Function string
	// Line is -1 when unknown.
	Line int
}

// UnknownLocation is returned for addresses without symbol information.
var UnknownLocation = Location{Line: -1}

// hashPC is the key hash for the location cache.
func hashPC(pc uintptr) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(pc))
	return uint32(xxh3.Hash(b[:]))
}

// Locator maps return addresses to source locations through the Go symbol
// table. Results are cached per address. Locator is safe for concurrent use.
type Locator struct {
	cache *lru.SyncedLRU[uintptr, Location]
}

// NewLocator returns a locator with an LRU of the given capacity.
func NewLocator(capacity uint32) (*Locator, error) {
	cache, err := lru.NewSynced[uintptr, Location](capacity, hashPC)
	if err != nil {
		return nil, err
	}
	return &Locator{cache: cache}, nil
}

// Locate returns the source location of the return address pc, or
// UnknownLocation.
func (l *Locator) Locate(pc uintptr) Location {
	if pc == 0 {
		return UnknownLocation
	}
	if loc, ok := l.cache.Get(pc); ok {
		return loc
	}

	loc := symbolize(pc)
	l.cache.Add(pc, loc)
	return loc
}

// Len returns the number of cached locations.
func (l *Locator) Len() int {
	return l.cache.Len()
}

// symbolize resolves one return address. CallersFrames takes care of the
// return address to call instruction adjustment.
func symbolize(pc uintptr) Location {
	frames := runtime.CallersFrames([]uintptr{pc})
	frame, _ := frames.Next()
	if frame.Function == "" && frame.File == "" {
		return UnknownLocation
	}

	loc := Location{
		File:     frame.File,
		Function: frame.Function,
		Line:     frame.Line,
	}
	if loc.Line <= 0 {
		loc.Line = -1
	}
	return loc
}
