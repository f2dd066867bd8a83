package writer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/kolkov/edgelog/internal/edgelog/config"
)

// ErrNoPath is returned by Open when no destination is configured.
var ErrNoPath = errors.New("no output path configured")

// Sink is a line-oriented trace destination.
//
// Implementations buffer internally; nothing is guaranteed to reach the
// destination before Flush or Close returns.
type Sink interface {
	// WriteLine writes line followed by a newline.
	WriteLine(line []byte) error
	// Flush pushes buffered lines to the destination.
	Flush() error
	// Close flushes buffered data and releases the destination.
	Close() error
}

const bufferSize = 64 << 10

// fileSink writes plain text to a file.
type fileSink struct {
	f *os.File
	w *bufio.Writer
}

// OpenFile creates (or truncates) path and returns a plain text sink.
func OpenFile(path string) (Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &fileSink{f: f, w: bufio.NewWriterSize(f, bufferSize)}, nil
}

func (s *fileSink) WriteLine(line []byte) error {
	if _, err := s.w.Write(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *fileSink) Flush() error {
	return s.w.Flush()
}

func (s *fileSink) Close() error {
	flushErr := s.w.Flush()
	closeErr := s.f.Close()
	return errors.Join(flushErr, closeErr)
}

// gzipSink writes gzip-compressed text to a file.
type gzipSink struct {
	f  *os.File
	gz *gzip.Writer
	w  *bufio.Writer
}

// OpenGzip creates (or truncates) path and returns a gzip compressed sink.
// The decompressed stream is identical to what OpenFile would write.
func OpenGzip(path string) (Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	gz := gzip.NewWriter(f)
	return &gzipSink{f: f, gz: gz, w: bufio.NewWriterSize(gz, bufferSize)}, nil
}

func (s *gzipSink) WriteLine(line []byte) error {
	if _, err := s.w.Write(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

// Flush emits a gzip sync flush, so everything written so far can be
// decompressed even if the process dies before Close.
func (s *gzipSink) Flush() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.gz.Flush()
}

func (s *gzipSink) Close() error {
	flushErr := s.w.Flush()
	gzErr := s.gz.Close()
	closeErr := s.f.Close()
	return errors.Join(flushErr, gzErr, closeErr)
}

// streamSink writes to a stream it does not own, such as stderr.
type streamSink struct {
	w *bufio.Writer
}

// NewStream returns a sink writing to w. Close flushes but never closes w.
func NewStream(w io.Writer) Sink {
	return &streamSink{w: bufio.NewWriterSize(w, bufferSize)}
}

func (s *streamSink) WriteLine(line []byte) error {
	if _, err := s.w.Write(line); err != nil {
		return err
	}
	return s.w.WriteByte('\n')
}

func (s *streamSink) Flush() error {
	return s.w.Flush()
}

func (s *streamSink) Close() error {
	return s.w.Flush()
}

// Open returns the sink selected by cfg:
//   - no path: ErrNoPath
//   - config.StreamPath: stderr (compression does not apply)
//   - Gzip set: OpenGzip
//   - otherwise: OpenFile
func Open(cfg config.Config) (Sink, error) {
	switch {
	case !cfg.HasPath():
		return nil, ErrNoPath
	case cfg.IsStream():
		return NewStream(os.Stderr), nil
	case cfg.Gzip:
		return OpenGzip(cfg.Path)
	default:
		return OpenFile(cfg.Path)
	}
}
