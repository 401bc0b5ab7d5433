package collector

import (
	"fmt"
	"log/slog"
	"time"
)

// Progress is a status snapshot emitted after a Step.
type Progress struct {
	Time         time.Time
	Phase        Phase
	Visited      int    // Catalog slots visited so far
	Expected     int    // Catalog size minus invalid instruments
	Current      string // Last visited identifier
	Admitted     int
	Samples      int // Samples of the last admitted instrument
	SampleTarget int
	Written      int
}

// Text renders the progress as the on-screen status block.
func (p Progress) Text() string {
	return fmt.Sprintf("Current UTC: %s\nCount waiting for %d symbols: %d %s\nCount waiting for %d ticks: %d",
		p.Time.UTC().Format("02.01.2006 15:04:05"),
		p.Expected, p.Visited, p.Current,
		p.SampleTarget, p.Samples,
	)
}

// StatusSink receives informational progress. It must not block.
type StatusSink interface {
	Status(p Progress)
}

// StatusFunc is a function adapter for StatusSink.
type StatusFunc func(Progress)

func (f StatusFunc) Status(p Progress) {
	f(p)
}

// LogStatus returns a sink that logs progress at info level.
func LogStatus(logger *slog.Logger) StatusSink {
	if logger == nil {
		logger = slog.Default()
	}
	return StatusFunc(func(p Progress) {
		logger.Info("collector status",
			"phase", p.Phase.String(),
			"visited", p.Visited,
			"expected", p.Expected,
			"current", p.Current,
			"admitted", p.Admitted,
			"samples", p.Samples,
			"sample_target", p.SampleTarget,
			"written", p.Written,
		)
	})
}
