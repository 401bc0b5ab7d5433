package catalog

import (
	"errors"
	"fmt"

	"github.com/rickgao/zorro-assets/internal/model"
)

// Errors
var (
	ErrInvalidInstrument = errors.New("invalid instrument")
	ErrUnknownSymbol     = fmt.Errorf("%w: unknown symbol", ErrInvalidInstrument)
	ErrNotTradable       = fmt.Errorf("%w: trading disabled", ErrInvalidInstrument)
	ErrInvalidSpread     = fmt.Errorf("%w: spread is not a number", ErrInvalidInstrument)
)

// Catalog is the read side consumed by the collection driver.
type Catalog interface {
	// Count returns the number of known instrument identifiers.
	Count() int

	// IdentifierAt returns the identifier at index (0 <= index < Count).
	IdentifierAt(index int) string

	// Load returns a validated snapshot. Errors wrap ErrInvalidInstrument.
	Load(identifier string) (model.Instrument, error)

	// EstimatedMargin returns the buy-side margin for volume units.
	EstimatedMargin(identifier string, volume float64) (float64, error)

	// Account returns the account the feed belongs to.
	Account() model.Account
}

// Memory is an in-memory Catalog fed by feed events.
// It is not safe for concurrent use; the host applies events and runs the
// driver on the same goroutine.
type Memory struct {
	names       []string
	instruments map[string]*model.Instrument
	account     model.Account
}

// NewMemory creates an empty catalog.
func NewMemory() *Memory {
	return &Memory{
		instruments: make(map[string]*model.Instrument),
	}
}

// Upsert adds or replaces instrument snapshots. New names keep arrival order.
func (m *Memory) Upsert(instruments ...model.Instrument) {
	for _, inst := range instruments {
		instCopy := inst
		if _, ok := m.instruments[inst.Name]; !ok {
			m.names = append(m.names, inst.Name)
		}
		m.instruments[inst.Name] = &instCopy
	}
}

// ApplyQuote updates bid, ask and spread of a known instrument.
// It returns false when the instrument is unknown.
func (m *Memory) ApplyQuote(q model.Quote) bool {
	inst, ok := m.instruments[q.Name]
	if !ok {
		return false
	}
	inst.Bid = q.Bid
	inst.Ask = q.Ask
	inst.Spread = q.Spread()
	return true
}

// SetAccount records the account reported by the feed.
func (m *Memory) SetAccount(acct model.Account) {
	m.account = acct
}

// Account returns the account reported by the feed.
func (m *Memory) Account() model.Account {
	return m.account
}

// Count returns the number of known instruments.
func (m *Memory) Count() int {
	return len(m.names)
}

// IdentifierAt returns the identifier at index.
func (m *Memory) IdentifierAt(index int) string {
	return m.names[index]
}

// Load returns a copy of the instrument if it is admissible.
func (m *Memory) Load(identifier string) (model.Instrument, error) {
	inst, ok := m.instruments[identifier]
	if !ok {
		return model.Instrument{}, fmt.Errorf("load %s: %w", identifier, ErrUnknownSymbol)
	}
	if err := Validate(*inst); err != nil {
		return model.Instrument{}, fmt.Errorf("load %s: %w", identifier, err)
	}
	return *inst, nil
}

// EstimatedMargin returns the buy-side margin for volume units.
func (m *Memory) EstimatedMargin(identifier string, volume float64) (float64, error) {
	inst, ok := m.instruments[identifier]
	if !ok {
		return 0, fmt.Errorf("estimate margin %s: %w", identifier, ErrUnknownSymbol)
	}
	return inst.EstimatedMargin(volume), nil
}

// Validate applies the admission rules to a snapshot.
func Validate(inst model.Instrument) error {
	if !inst.Tradable {
		return ErrNotTradable
	}
	if !inst.HasValidSpread() {
		return ErrInvalidSpread
	}
	return nil
}
