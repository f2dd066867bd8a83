// Package writer serializes traces.
//
// Two text encodings exist:
//
// Compact, written at process end by the buffered backend:
//
//	base_addr,94085311438848,/usr/local/bin/server
//	0,94085312571203
//	94085312571203,94085312571299
//
// The header carries the load address and path of the traced module ("?"
// when unknown). Each following line is one edge, previous and current
// address in decimal. Edges of one goroutine are contiguous and in
// recording order.
//
// Enriched, written per call by the eager backend:
//
//	[a.c:f:10] conditional branch @0x1000
//
// Either stream may be gzip-compressed; the decoders detect that.
package writer

import (
	"strconv"

	"github.com/kolkov/edgelog/internal/edgelog/edge"
	"github.com/kolkov/edgelog/internal/edgelog/resolve"
	"github.com/kolkov/edgelog/internal/edgelog/sitedepot"
)

// HeaderTag starts the compact header line.
const HeaderTag = "base_addr"

// unknownModule is written in place of an unresolved module path.
const unknownModule = "?"

// AppendHeader appends the compact header line for m.
func AppendHeader(dst []byte, m resolve.Module) []byte {
	dst = append(dst, HeaderTag...)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(m.Base), 10)
	dst = append(dst, ',')
	if m.Path == "" {
		return append(dst, unknownModule...)
	}
	return append(dst, m.Path...)
}

// AppendEdge appends the compact line of e.
func AppendEdge(dst []byte, e edge.Edge) []byte {
	dst = strconv.AppendUint(dst, uint64(e.Prev), 10)
	dst = append(dst, ',')
	return strconv.AppendUint(dst, uint64(e.Cur), 10)
}

// AppendRecord appends the enriched line of r.
func AppendRecord(dst []byte, r edge.Record) []byte {
	dst = sitedepot.AppendPrefix(dst, r.File, r.Function, r.Line, r.Kind)
	return strconv.AppendUint(dst, uint64(r.PC), 16)
}

// WriteCompact writes a complete compact trace: the header for m, then the
// edges of every shard in order. It returns the number of edges written.
func WriteCompact(s Sink, m resolve.Module, shards [][]edge.Edge) (int, error) {
	buf := make([]byte, 0, 128)

	if err := s.WriteLine(AppendHeader(buf[:0], m)); err != nil {
		return 0, err
	}

	n := 0
	for _, edges := range shards {
		for _, e := range edges {
			buf = AppendEdge(buf[:0], e)
			if err := s.WriteLine(buf); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, nil
}
