package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/zorro-assets/internal/catalog"
	"github.com/rickgao/zorro-assets/internal/feed"
)

// ErrFeedEnded is returned when the source finishes before the driver does.
var ErrFeedEnded = errors.New("feed ended before export completed")

// DefaultBufferSize is the event channel capacity.
const DefaultBufferSize = 1024

// Stepper is the driver as seen by the host.
type Stepper interface {
	Step(now time.Time) error
	Done() bool
}

// Host feeds events from a source into the catalog and the driver.
type Host struct {
	catalog    *catalog.Memory
	logger     *slog.Logger
	bufferSize int

	stopOnce sync.Once
	stopCh   chan struct{}

	mu    sync.Mutex
	stats Stats
}

// Stats counts events handled by the host.
type Stats struct {
	Accounts      int64
	SymbolSets    int64
	Quotes        int64
	UnknownQuotes int64
	EarlyQuotes   int64 // Quotes received before the first symbol set
	Steps         int64
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		h.logger = logger
	}
}

// WithBufferSize sets the event channel capacity.
func WithBufferSize(n int) Option {
	return func(h *Host) {
		h.bufferSize = n
	}
}

// New creates a Host over a live catalog.
func New(cat *catalog.Memory, opts ...Option) *Host {
	h := &Host{
		catalog:    cat,
		bufferSize: DefaultBufferSize,
		stopCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.bufferSize < 0 {
		h.bufferSize = 0
	}
	return h
}

// Stop asks Run to return. Safe to call more than once and from the driver's
// stop callback.
func (h *Host) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}

// Stats returns a snapshot of the event counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Run drives drv from src until the driver is done, the source ends, a step
// fails or ctx is cancelled.
func (h *Host) Run(ctx context.Context, src feed.Source, drv Stepper) error {
	g, gctx := errgroup.WithContext(ctx)
	events := make(chan feed.Event, h.bufferSize)
	sourceDone := make(chan struct{})

	g.Go(func() error {
		if err := src.Run(gctx, events); err != nil {
			return fmt.Errorf("run source: %w", err)
		}
		close(sourceDone)
		return nil
	})

	g.Go(func() error {
		return h.loop(gctx, events, sourceDone, drv)
	})

	err := g.Wait()
	switch {
	case errors.Is(err, errStopped):
		return nil
	case err != nil && ctx.Err() != nil:
		return ctx.Err()
	}
	return err
}

// errStopped unwinds the errgroup once the driver is done.
var errStopped = errors.New("stopped")

func (h *Host) loop(ctx context.Context, events <-chan feed.Event, sourceDone <-chan struct{}, drv Stepper) error {
	ready := false

	handle := func(ev feed.Event) error {
		switch ev.Kind {
		case feed.EventAccount:
			h.count(func(s *Stats) { s.Accounts++ })
			h.catalog.SetAccount(ev.Account)
			h.logger.Info("account",
				"broker", ev.Account.BrokerName,
				"live", ev.Account.IsLive,
			)

		case feed.EventInstruments:
			h.count(func(s *Stats) { s.SymbolSets++ })
			h.catalog.Upsert(ev.Instruments...)
			if !ready {
				ready = true
				h.logger.Info("symbols received, please wait",
					"count", h.catalog.Count(),
				)
			}

		case feed.EventQuote:
			h.count(func(s *Stats) { s.Quotes++ })
			if !h.catalog.ApplyQuote(ev.Quote) {
				h.count(func(s *Stats) { s.UnknownQuotes++ })
			}
			if !ready {
				h.count(func(s *Stats) { s.EarlyQuotes++ })
				return nil
			}
			h.count(func(s *Stats) { s.Steps++ })
			if err := drv.Step(ev.Time); err != nil {
				return fmt.Errorf("step driver: %w", err)
			}
		}
		return nil
	}

	for {
		if drv.Done() {
			return errStopped
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-h.stopCh:
			return errStopped

		case ev := <-events:
			if err := handle(ev); err != nil {
				return err
			}

		case <-sourceDone:
			// Drain what the source delivered before it returned.
			for {
				select {
				case ev := <-events:
					if err := handle(ev); err != nil {
						return err
					}
					if drv.Done() {
						return errStopped
					}
				default:
					return ErrFeedEnded
				}
			}
		}
	}
}

func (h *Host) count(fn func(*Stats)) {
	h.mu.Lock()
	fn(&h.stats)
	h.mu.Unlock()
}
