package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rickgao/zorro-assets/internal/model"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrFeedClosed      = errors.New("feed closed by server")
)

// EventKind identifies the payload of an Event.
type EventKind int

const (
	EventAccount EventKind = iota + 1
	EventInstruments
	EventQuote
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventAccount:
		return "account"
	case EventInstruments:
		return "instruments"
	case EventQuote:
		return "quote"
	default:
		return "unknown"
	}
}

// Event is one message from a source.
type Event struct {
	Kind        EventKind
	Time        time.Time // Feed time (UTC)
	Account     model.Account
	Instruments []model.Instrument
	Quote       model.Quote
}

// Source produces events until ctx is cancelled or the feed ends.
// A nil return means the feed ended normally.
type Source interface {
	Run(ctx context.Context, out chan<- Event) error
}

// send delivers ev unless ctx is cancelled first.
func send(ctx context.Context, out chan<- Event, ev Event) error {
	select {
	case out <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL          string        // WebSocket URL (e.g., wss://bridge.local/feed)
	APIKey       string        // Bearer token (empty = no auth)
	PingTimeout  time.Duration // Max time without ping before considering connection stale
	WriteTimeout time.Duration // Write deadline for sends
	BufferSize   int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   10000,
	}
}
