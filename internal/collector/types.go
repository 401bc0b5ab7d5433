package collector

import "time"

// Phase is the driver state.
type Phase int

const (
	PhaseDiscovery Phase = iota
	PhaseAccumulation
	PhaseExport
	PhaseTerminal
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseDiscovery:
		return "discovery"
	case PhaseAccumulation:
		return "accumulation"
	case PhaseExport:
		return "export"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Config holds Collection Driver configuration.
type Config struct {
	HistoryPath  string // Directory receiving the asset file
	Exclude      string // Comma-separated deny-list
	SampleTarget int    // Spread samples per instrument
	Window       Window // Optional accumulation window
	StatusEvery  int    // Report status every N steps (0 = phase changes only)
}

// DefaultSampleTarget is the number of spread samples averaged per instrument.
const DefaultSampleTarget = 100

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SampleTarget: DefaultSampleTarget,
		StatusEvery:  50,
	}
}

// Window restricts spread sampling to an hour-of-day range (UTC, inclusive).
// A range with StartHour > EndHour wraps midnight.
type Window struct {
	Enabled   bool
	StartHour int
	EndHour   int
}

// Allows reports whether an event at t may be sampled.
func (w Window) Allows(t time.Time) bool {
	if !w.Enabled {
		return true
	}
	h := t.UTC().Hour()
	if w.StartHour <= w.EndHour {
		return h >= w.StartHour && h <= w.EndHour
	}
	return h >= w.StartHour || h <= w.EndHour
}

// Stats contains run counters.
type Stats struct {
	Steps         int64
	Discovered    int // Catalog slots visited
	Excluded      int
	Invalid       int
	Admitted      int
	SkippedSteps  int64 // Accumulation steps outside the window
	StaleSamples  int64 // Samples taken from a previous snapshot
	Written       int
	SessionFaults int // Records written without market hours
}
