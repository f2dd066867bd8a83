package edgelog

import "github.com/kolkov/edgelog/internal/edgelog/api"

// Version information for the edge tracing runtime.
const (
	// Version is the current version of the runtime.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the tracer.
type Info struct {
	// Version is the runtime version string.
	Version string

	// Mode is the active backend, empty before Init and after Fini.
	Mode Mode

	// Enabled indicates whether recording is on.
	Enabled bool
}

// GetInfo returns information about the tracing runtime.
//
// Example:
//
//	info := edgelog.GetInfo()
//	fmt.Printf("edgelog %s (%s)\n", info.Version, info.Mode)
func GetInfo() Info {
	s := api.GetStats()
	return Info{
		Version: Version,
		Mode:    s.Mode,
		Enabled: s.Enabled,
	}
}

// Stats holds the runtime's counters.
type Stats struct {
	// State is the trace store's lifecycle state.
	State State

	// Goroutines is the number of goroutines that buffered edges.
	Goroutines int

	// Dropped counts edges discarded because EDGE_LOG_MAX_EDGES was reached.
	Dropped uint64

	// Written counts records written to the trace so far: edges in compact
	// mode, lines in enriched mode. The compact header is not counted.
	Written int64
}

// GetStats returns the current counters.
func GetStats() Stats {
	s := api.GetStats()
	return Stats{
		State:      s.State,
		Goroutines: s.Goroutines,
		Dropped:    s.Dropped,
		Written:    s.Written,
	}
}
