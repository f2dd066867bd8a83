// Package sitedepot interns instrumentation call sites for the enriched
// backend.
//
// An instrumentation site always passes the same (file, function, line,
// kind) tuple, so the bracketed prefix of its trace line is formatted once
// and reused for every later call. Sites are deduplicated by a 64-bit hash
// of their tuple.
//
// Usage:
//
//	site := sitedepot.Intern("a.c", "f", 10, edge.ConditionalBranch)
//	line := site.AppendLine(buf[:0], pc) // "[a.c:f:10] conditional branch @0x1000"
//
// The depot grows with the number of distinct sites, which is fixed by the
// instrumented binary.
package sitedepot

import (
	"encoding/binary"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/kolkov/edgelog/internal/edgelog/edge"
)

// Site is an interned call site.
type Site struct {
	File     string
	Function string
	Line     int
	Kind     edge.Kind

	// prefix is "[file:function:line] kind label @0x".
	prefix []byte
}

// siteDepot maps a tuple hash to its *Site.
var siteDepot sync.Map

// Intern returns the site for the tuple, creating it on first use.
// Negative lines are stored as unknown. Safe for concurrent use.
func Intern(file, function string, line int, kind edge.Kind) *Site {
	if line < 0 {
		line = edge.UnknownLine
	}
	kind = kind.Normalize()

	hash := hashSite(file, function, line, kind)
	if val, ok := siteDepot.Load(hash); ok {
		site := val.(*Site)
		if site.matches(file, function, line, kind) {
			return site
		}
		// Hash collision: hand out an unshared site.
		return newSite(file, function, line, kind)
	}

	site := newSite(file, function, line, kind)
	actual, _ := siteDepot.LoadOrStore(hash, site)
	if s := actual.(*Site); s.matches(file, function, line, kind) {
		return s
	}
	return site
}

func newSite(file, function string, line int, kind edge.Kind) *Site {
	s := &Site{File: file, Function: function, Line: line, Kind: kind}
	s.prefix = AppendPrefix(nil, file, function, line, kind)
	return s
}

func (s *Site) matches(file, function string, line int, kind edge.Kind) bool {
	return s.File == file && s.Function == function && s.Line == line && s.Kind == kind
}

// Record returns the site as an edge record at pc.
func (s *Site) Record(pc uintptr) edge.Record {
	return edge.Record{File: s.File, Function: s.Function, Line: s.Line, Kind: s.Kind, PC: pc}
}

// AppendLine appends the enriched trace line for a call at pc, without a
// trailing newline.
func (s *Site) AppendLine(dst []byte, pc uintptr) []byte {
	dst = append(dst, s.prefix...)
	return strconv.AppendUint(dst, uint64(pc), 16)
}

// AppendPrefix appends "[file:function:line] label @0x" where an unknown
// line renders as "?".
func AppendPrefix(dst []byte, file, function string, line int, kind edge.Kind) []byte {
	dst = append(dst, '[')
	dst = append(dst, file...)
	dst = append(dst, ':')
	dst = append(dst, function...)
	dst = append(dst, ':')
	if line < 0 {
		dst = append(dst, '?')
	} else {
		dst = strconv.AppendInt(dst, int64(line), 10)
	}
	dst = append(dst, "] "...)
	dst = append(dst, kind.String()...)
	return append(dst, " @0x"...)
}

// hashSite computes the xxh3 hash of a site tuple. Field lengths are mixed
// in so that ("ab","c") and ("a","bc") differ.
func hashSite(file, function string, line int, kind edge.Kind) uint64 {
	h := xxh3.New()
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(file)))
	_, _ = h.Write(n[:])
	_, _ = h.WriteString(file)
	binary.LittleEndian.PutUint64(n[:], uint64(len(function)))
	_, _ = h.Write(n[:])
	_, _ = h.WriteString(function)
	binary.LittleEndian.PutUint64(n[:], uint64(int64(line)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte{byte(kind)})
	return h.Sum64()
}

// Reset clears the depot (for testing).
//
// Thread Safety: NOT safe for concurrent calls.
func Reset() {
	siteDepot = sync.Map{}
}

// Stats returns the number of interned sites.
//
// Performance: O(N), do not call on the hot path.
func Stats() (uniqueSites int) {
	siteDepot.Range(func(_, _ any) bool {
		uniqueSites++
		return true
	})
	return uniqueSites
}
