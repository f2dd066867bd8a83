// Package diag is the diagnostics channel of the tracing runtime.
//
// Diagnostics describe problems of the tracer itself (missing output path,
// unopenable destination, invalid configuration). They are written to the
// process's stderr and never to the trace sink, and they never change the
// behavior of the traced program.
package diag

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

const timeStampFormat = "2006-01-02T15:04:05.000000000Z07:00"

var (
	mu     sync.Mutex
	logger = newLogger(os.Stderr)
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: timeStampFormat,
		DisableSorting:  true,
	})
	l.SetLevel(logrus.WarnLevel)
	return l
}

// SetDebug switches debug diagnostics on or off.
func SetDebug(on bool) {
	mu.Lock()
	defer mu.Unlock()
	if on {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
}

// SetOutput redirects diagnostics. It returns the previous writer so tests
// can restore it.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := logger.Out
	logger.SetOutput(w)
	return prev
}

func entry() *logrus.Entry {
	return logger.WithField("component", "edgelog")
}

// Debugf logs a message only shown with EDGE_LOG_DEBUG set.
func Debugf(format string, args ...any) {
	entry().Debugf(format, args...)
}

// Warnf logs a degraded-but-working condition.
func Warnf(format string, args ...any) {
	entry().Warnf(format, args...)
}

// Errorf logs a failure that lost (part of) the trace.
func Errorf(format string, args ...any) {
	entry().Errorf(format, args...)
}
