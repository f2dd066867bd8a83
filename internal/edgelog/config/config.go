// Package config reads the tracing runtime's configuration.
//
// Configuration comes from the environment (prefix EDGE_LOG_) and, when
// EDGE_LOG_CONFIG names one, from a plain "key value" file:
//
//	EDGE_LOG_PATH       output destination ("-" writes to stderr)
//	EDGE_LOG_GZIP       present and not false-ish: gzip the output
//	EDGE_LOG_MODE       "compact" (default) or "enriched"
//	EDGE_LOG_MAX_EDGES  maximum number of buffered edges, 0 = unlimited
//	EDGE_LOG_DEBUG      print debug diagnostics
//
// Invalid values never fail the host program: Load returns the defaults for
// anything it could not parse together with an error describing it.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterbourgon/ff/v3"
)

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "EDGE_LOG"

// Mode selects the tracing backend.
type Mode string

const (
	// ModeCompact buffers (prev, cur) address pairs per goroutine and
	// writes them when the process finishes.
	ModeCompact Mode = "compact"

	// ModeEnriched writes one enriched record per call, immediately.
	ModeEnriched Mode = "enriched"
)

// StreamPath is the EDGE_LOG_PATH value that selects the stderr stream.
const StreamPath = "-"

// ErrInvalidMode is returned by Load for an unknown EDGE_LOG_MODE.
var ErrInvalidMode = errors.New("invalid mode")

// Config is the runtime configuration, fixed at Init.
type Config struct {
	// Path is the output destination. Empty means no trace is written.
	Path string

	// Gzip enables compressed output.
	Gzip bool

	// Mode selects the backend.
	Mode Mode

	// MaxEdges bounds the number of buffered edges (0 = unlimited).
	MaxEdges uint64

	// Debug enables debug diagnostics.
	Debug bool
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{Mode: ModeCompact}
}

// HasPath reports whether an output destination is configured.
func (c Config) HasPath() bool {
	return c.Path != ""
}

// IsStream reports whether output goes to the stderr stream.
func (c Config) IsStream() bool {
	return c.Path == StreamPath
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	return parse(nil)
}

func parse(args []string) (Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("edgelog", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		mode     string
		gzip     string
		maxEdges string
		debug    string
	)
	fs.StringVar(&cfg.Path, "path", "", "output destination")
	fs.StringVar(&gzip, "gzip", "", "compress output when set")
	fs.StringVar(&mode, "mode", string(ModeCompact), "backend: compact or enriched")
	fs.StringVar(&maxEdges, "max-edges", "", "maximum number of buffered edges")
	fs.StringVar(&debug, "debug", "", "print debug diagnostics")
	fs.String("config", "", "plain key/value config file")

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix(EnvPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
		ff.WithAllowMissingConfigFile(true),
	); err != nil {
		return Default(), fmt.Errorf("parse configuration: %w", err)
	}

	// Presence enables compression, even with an empty value, which ff
	// does not report.
	if _, set := os.LookupEnv(EnvPrefix + "_GZIP"); set && gzip == "" {
		gzip = "1"
	}
	cfg.Gzip = truthy(gzip)
	cfg.Debug = truthy(debug)

	var errs []error
	if maxEdges = strings.TrimSpace(maxEdges); maxEdges != "" {
		n, err := strconv.ParseUint(maxEdges, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("max edges %q: %w", maxEdges, err))
		} else {
			cfg.MaxEdges = n
		}
	}

	switch Mode(strings.ToLower(strings.TrimSpace(mode))) {
	case ModeCompact, "":
		cfg.Mode = ModeCompact
	case ModeEnriched:
		cfg.Mode = ModeEnriched
	default:
		cfg.Mode = ModeCompact
		errs = append(errs, fmt.Errorf("%w %q, using %s", ErrInvalidMode, mode, ModeCompact))
	}

	return cfg, errors.Join(errs...)
}

// truthy interprets a presence-style switch: any value but an explicit
// negative turns it on.
func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "no", "off":
		return false
	}
	return true
}
