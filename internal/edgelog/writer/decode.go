package writer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/kolkov/edgelog/internal/edgelog/edge"
	"github.com/kolkov/edgelog/internal/edgelog/resolve"
)

var (
	// ErrBadHeader is returned when a compact trace does not start with a
	// valid header line.
	ErrBadHeader = errors.New("malformed compact header")

	// ErrBadLine is returned for a line that does not match the encoding.
	ErrBadLine = errors.New("malformed trace line")
)

var gzipMagic = []byte{0x1f, 0x8b}

// maxLineSize bounds a single decoded line. Enriched traces written to a
// shared stderr may carry long foreign lines, which must not end the read.
const maxLineSize = 1 << 20

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	return scanner
}

// NewReader returns a reader over the decompressed content of r. Gzip input
// is detected by its magic bytes; anything else is passed through.
func NewReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, nil
	}
	return br, nil
}

// Trace is a decoded compact trace.
type Trace struct {
	Module resolve.Module
	Edges  []edge.Edge
}

// IsCompact reports whether line is a compact header line.
func IsCompact(line string) bool {
	return strings.HasPrefix(line, HeaderTag+",")
}

// ParseHeader parses a compact header line.
func ParseHeader(line string) (resolve.Module, error) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) != 3 || parts[0] != HeaderTag {
		return resolve.Module{}, fmt.Errorf("%w: %q", ErrBadHeader, line)
	}
	base, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return resolve.Module{}, fmt.Errorf("%w: base %q", ErrBadHeader, parts[1])
	}
	m := resolve.Module{Base: uintptr(base)}
	if parts[2] != unknownModule {
		m.Path = parts[2]
	}
	return m, nil
}

// ParseEdge parses one compact edge line.
func ParseEdge(line string) (edge.Edge, error) {
	prev, cur, ok := strings.Cut(line, ",")
	if !ok {
		return edge.Edge{}, fmt.Errorf("%w: %q", ErrBadLine, line)
	}
	p, err := strconv.ParseUint(prev, 10, 64)
	if err != nil {
		return edge.Edge{}, fmt.Errorf("%w: %q", ErrBadLine, line)
	}
	c, err := strconv.ParseUint(cur, 10, 64)
	if err != nil {
		return edge.Edge{}, fmt.Errorf("%w: %q", ErrBadLine, line)
	}
	return edge.Edge{Prev: uintptr(p), Cur: uintptr(c)}, nil
}

// ReadCompact decodes a compact trace, compressed or not.
func ReadCompact(r io.Reader) (Trace, error) {
	rd, err := NewReader(r)
	if err != nil {
		return Trace{}, err
	}

	var t Trace
	scanner := newScanner(rd)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return Trace{}, err
		}
		return Trace{}, fmt.Errorf("%w: empty trace", ErrBadHeader)
	}
	if t.Module, err = ParseHeader(scanner.Text()); err != nil {
		return Trace{}, err
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		e, err := ParseEdge(line)
		if err != nil {
			return t, err
		}
		t.Edges = append(t.Edges, e)
	}
	return t, scanner.Err()
}

// ParseRecord parses one enriched line.
func ParseRecord(line string) (edge.Record, error) {
	bad := func() (edge.Record, error) {
		return edge.Record{}, fmt.Errorf("%w: %q", ErrBadLine, line)
	}

	if !strings.HasPrefix(line, "[") {
		return bad()
	}
	end := strings.LastIndex(line, "] ")
	if end < 0 {
		return bad()
	}
	site, rest := line[1:end], line[end+2:]

	// File names may contain ':', function names usually do not, the line
	// never does: split from the right.
	lineSep := strings.LastIndexByte(site, ':')
	if lineSep < 0 {
		return bad()
	}
	funcSep := strings.LastIndexByte(site[:lineSep], ':')
	if funcSep < 0 {
		return bad()
	}

	rec := edge.Record{
		File:     site[:funcSep],
		Function: site[funcSep+1 : lineSep],
		Line:     edge.UnknownLine,
	}
	if ln := site[lineSep+1:]; ln != "?" {
		n, err := strconv.Atoi(ln)
		if err != nil {
			return bad()
		}
		rec.Line = n
	}

	label, addr, ok := strings.Cut(rest, " @0x")
	if !ok {
		return bad()
	}
	kind, ok := edge.ParseKind(label)
	if !ok {
		return bad()
	}
	rec.Kind = kind
	pc, err := strconv.ParseUint(addr, 16, 64)
	if err != nil {
		return bad()
	}
	rec.PC = uintptr(pc)
	return rec, nil
}

// ReadRecords decodes an enriched trace, compressed or not. Lines that are
// not records (for example diagnostics interleaved on a shared stderr) are
// skipped and counted.
func ReadRecords(r io.Reader) (records []edge.Record, skipped int, err error) {
	rd, err := NewReader(r)
	if err != nil {
		return nil, 0, err
	}

	scanner := newScanner(rd)
	for scanner.Scan() {
		rec, err := ParseRecord(scanner.Text())
		if err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, scanner.Err()
}
