package collector

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/rickgao/zorro-assets/internal/catalog"
	"github.com/rickgao/zorro-assets/internal/exclude"
	"github.com/rickgao/zorro-assets/internal/model"
	"github.com/rickgao/zorro-assets/internal/spread"
	"github.com/rickgao/zorro-assets/internal/writer"
)

// admitted is one instrument tracked from admission until export.
type admitted struct {
	inst model.Instrument // Latest valid snapshot
	acc  spread.Accumulator
}

// Driver is the collection state machine. It is not safe for concurrent use.
type Driver struct {
	cfg     Config
	catalog catalog.Catalog
	filter  exclude.Filter
	status  StatusSink
	onStop  func()
	logger  *slog.Logger

	phase    Phase
	started  bool
	index    int
	expected int
	current  string
	admitted []*admitted
	written  int

	out *writer.AssetWriter
	err error // Fatal error, sticky

	stats Stats
}

// Option configures a Driver.
type Option func(*Driver)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithStatusSink sets the progress sink.
func WithStatusSink(sink StatusSink) Option {
	return func(d *Driver) {
		d.status = sink
	}
}

// WithStopFunc sets the callback fired once on reaching PhaseTerminal.
func WithStopFunc(fn func()) Option {
	return func(d *Driver) {
		d.onStop = fn
	}
}

// New creates a Driver in PhaseDiscovery.
func New(cfg Config, cat catalog.Catalog, opts ...Option) *Driver {
	d := &Driver{
		cfg:     cfg,
		catalog: cat,
		filter:  exclude.Parse(cfg.Exclude),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Phase returns the current phase.
func (d *Driver) Phase() Phase { return d.phase }

// Done reports whether the asset file has been written and closed.
func (d *Driver) Done() bool { return d.phase == PhaseTerminal }

// Err returns the fatal error that halted the driver, if any.
func (d *Driver) Err() error { return d.err }

// Stats returns run counters.
func (d *Driver) Stats() Stats {
	s := d.stats
	s.Admitted = len(d.admitted)
	s.Written = d.written
	return s
}

// Admitted returns the admitted identifiers in admission order.
func (d *Driver) Admitted() []string {
	names := make([]string, len(d.admitted))
	for i, a := range d.admitted {
		names[i] = a.inst.Name
	}
	return names
}

// Step performs one unit of work for an update event observed at now.
// A returned error is fatal and is returned again by every later Step.
func (d *Driver) Step(now time.Time) error {
	if d.err != nil {
		return d.err
	}
	if d.phase == PhaseTerminal {
		return nil
	}

	d.stats.Steps++
	before := d.phase

	switch d.phase {
	case PhaseDiscovery:
		d.discover()
	case PhaseAccumulation:
		d.accumulate(now)
	case PhaseExport:
		if err := d.export(); err != nil {
			d.err = err
			d.closeOutput()
			d.logger.Error("export failed", "error", err)
			return err
		}
	}

	d.report(now, before != d.phase)
	return nil
}

// Close releases the asset file if the run stopped before PhaseTerminal.
func (d *Driver) Close() error {
	return d.closeOutput()
}

// discover visits one catalog slot.
func (d *Driver) discover() {
	count := d.catalog.Count()
	if !d.started {
		d.started = true
		d.expected = count
		d.logger.Info("discovering symbols", "count", count)
	}

	if d.index < count {
		id := d.catalog.IdentifierAt(d.index)
		n := d.index + 1
		d.current = id
		d.stats.Discovered++

		if tok, ok := d.filter.Match(id); ok {
			d.stats.Excluded++
			d.logger.Info("symbol excluded", "n", n, "symbol", id, "token", tok)
		} else if inst, err := d.catalog.Load(id); err != nil {
			d.stats.Invalid++
			d.expected--
			d.logger.Warn("symbol invalid", "n", n, "symbol", id, "error", err)
		} else {
			d.admitted = append(d.admitted, &admitted{inst: inst})
			d.logger.Info("symbol admitted", "n", n, "symbol", id)
		}
		d.index++
	}

	if d.index >= count {
		if len(d.admitted) == 0 {
			d.logger.Warn("no symbols admitted, exporting header only")
			d.setPhase(PhaseExport)
			return
		}
		d.setPhase(PhaseAccumulation)
	}
}

// accumulate samples every unsaturated instrument once.
func (d *Driver) accumulate(now time.Time) {
	if !d.cfg.Window.Allows(now) {
		d.stats.SkippedSteps++
		return
	}

	for _, a := range d.admitted {
		if a.acc.Saturated(d.cfg.SampleTarget) {
			continue
		}
		inst, err := d.catalog.Load(a.inst.Name)
		if err != nil {
			// Keep lockstep: sample the last good snapshot.
			d.stats.StaleSamples++
			d.logger.Debug("spread refresh failed, reusing last snapshot",
				"symbol", a.inst.Name,
				"error", err,
			)
		} else {
			a.inst = inst
		}
		a.acc.Add(a.inst.Spread)
	}

	if d.saturated() {
		d.setPhase(PhaseExport)
	}
}

// saturated reports whether every admitted instrument reached the target.
func (d *Driver) saturated() bool {
	for _, a := range d.admitted {
		if !a.acc.Saturated(d.cfg.SampleTarget) {
			return false
		}
	}
	return true
}

// export writes the header on first entry and one record per call.
func (d *Driver) export() error {
	if d.out == nil {
		acct := d.catalog.Account()
		path := writer.AssetPath(d.cfg.HistoryPath, acct.BrokerName, acct.IsLive)

		w, err := writer.Create(path)
		if err != nil {
			return fmt.Errorf("open export: %w", err)
		}
		d.out = w
		if err := w.WriteHeader(); err != nil {
			return fmt.Errorf("open export: %w", err)
		}
		d.logger.Info("writing asset file",
			"path", path,
			"records", len(d.admitted),
		)
	}

	if d.written < len(d.admitted) {
		if err := d.writeRecord(d.admitted[d.written]); err != nil {
			return err
		}
		d.written++
	}

	if d.written == len(d.admitted) {
		path := d.out.Path()
		if err := d.closeOutput(); err != nil {
			return err
		}
		d.setPhase(PhaseTerminal)
		d.logger.Info("asset file complete",
			"path", path,
			"records", d.written,
			"excluded", d.stats.Excluded,
			"invalid", d.stats.Invalid,
		)
		if d.onStop != nil {
			d.onStop()
		}
	}
	return nil
}

func (d *Driver) writeRecord(a *admitted) error {
	n := d.written + 1
	inst := a.inst

	rec, err := writer.Format(inst, a.acc.Average(), d.margin(inst))
	if errors.Is(err, writer.ErrMissingSession) {
		d.stats.SessionFaults++
		d.logger.Warn("missing session data, market hours left empty",
			"n", n,
			"symbol", inst.Name,
			"sessions", len(inst.Sessions),
		)
	}

	if err := d.out.WriteRecord(rec); err != nil {
		return err
	}
	d.logger.Info("writing symbol", "n", n, "symbol", inst.Name, "avg_spread", a.acc.Average())
	return nil
}

// margin returns the catalog's live estimate, or the snapshot's when the live
// entry has no usable ask (unknown, one-sided or zero quote since sampling).
func (d *Driver) margin(inst model.Instrument) float64 {
	m, err := d.catalog.EstimatedMargin(inst.Name, inst.LotSize)
	if err == nil && m > 0 && !math.IsInf(m, 0) {
		return m
	}
	d.logger.Warn("margin estimate unavailable, using snapshot",
		"symbol", inst.Name,
		"estimate", m,
		"error", err,
	)
	return inst.EstimatedMargin(inst.LotSize)
}

func (d *Driver) closeOutput() error {
	if d.out == nil {
		return nil
	}
	err := d.out.Close()
	d.out = nil
	return err
}

func (d *Driver) setPhase(p Phase) {
	d.logger.Debug("phase change", "from", d.phase.String(), "to", p.String())
	d.phase = p
}

// report emits progress on phase changes and every StatusEvery steps.
func (d *Driver) report(now time.Time, changed bool) {
	if d.status == nil {
		return
	}
	periodic := d.cfg.StatusEvery > 0 && d.stats.Steps%int64(d.cfg.StatusEvery) == 0
	if !changed && !periodic {
		return
	}

	p := Progress{
		Time:         now,
		Phase:        d.phase,
		Visited:      d.index,
		Expected:     d.expected,
		Current:      d.current,
		Admitted:     len(d.admitted),
		SampleTarget: d.cfg.SampleTarget,
		Written:      d.written,
	}
	if len(d.admitted) > 0 {
		p.Samples = d.admitted[len(d.admitted)-1].acc.Count()
	}
	d.status.Status(p)
}
