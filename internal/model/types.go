package model

import (
	"math"
	"time"
)

// -----------------------------------------------------------------------------
// Instrument Types
// -----------------------------------------------------------------------------

// Session is one trading session of an instrument, as time-of-day offsets (UTC).
type Session struct {
	Start time.Duration // Offset from midnight
	End   time.Duration // Offset from midnight, may be 24h
}

// LeverageTier is one step of a broker's dynamic leverage schedule.
type LeverageTier struct {
	Volume   float64 // Upper volume bound of the tier (units)
	Leverage float64 // Leverage, e.g. 500 for 1:500
}

// Instrument is an immutable snapshot of a tradable symbol as reported by the feed.
type Instrument struct {
	Name     string // Display name, also the catalog identifier (e.g., "EURUSD")
	Symbol   string // Broker-native symbol name, empty when equal to Name
	Tradable bool   // Trading enabled on the account

	// Current quote
	Bid    float64
	Ask    float64
	Spread float64 // Ask - Bid, NaN when the feed has no valid quote

	// Costs
	SwapLong   float64 // Rollover per lot, long side
	SwapShort  float64 // Rollover per lot, short side
	Commission float64 // Commission per lot
	MarginRate float64 // Margin as fraction of notional, used without leverage tiers

	// Contract
	PipSize    float64 // Price increment of one pip
	PipValue   float64 // Value of one pip per unit of volume
	LotSize    float64 // Units per lot
	Digits     int     // Price decimal precision
	MinVolume  float64 // Minimum order volume (units)
	BaseAsset  string
	QuoteAsset string

	Sessions []Session      // Ordered trading sessions
	Leverage []LeverageTier // Ordered dynamic leverage tiers, may be empty
}

// BrokerSymbol returns the broker-native symbol, falling back to Name.
func (i Instrument) BrokerSymbol() string {
	if i.Symbol != "" {
		return i.Symbol
	}
	return i.Name
}

// HasValidSpread reports whether Spread is a finite number.
func (i Instrument) HasValidSpread() bool {
	return !math.IsNaN(i.Spread) && !math.IsInf(i.Spread, 0)
}

// FirstLeverage returns the leverage of the first dynamic tier.
func (i Instrument) FirstLeverage() (float64, bool) {
	if len(i.Leverage) == 0 {
		return 0, false
	}
	return i.Leverage[0].Leverage, true
}

// EstimatedMargin returns the margin needed to buy volume units at the current ask.
// The first leverage tier wins over MarginRate.
func (i Instrument) EstimatedMargin(volume float64) float64 {
	notional := volume * i.Ask
	if lev, ok := i.FirstLeverage(); ok && lev > 0 {
		return notional / lev
	}
	return notional * i.MarginRate
}

// -----------------------------------------------------------------------------
// Account / Feed Types
// -----------------------------------------------------------------------------

// Account identifies the trading account the feed belongs to.
type Account struct {
	BrokerName string
	IsLive     bool
}

// Quote is a single bid/ask update for an instrument.
type Quote struct {
	Name string
	Time time.Time
	Bid  float64
	Ask  float64
}

// Spread returns ask minus bid, NaN when either side is missing.
func (q Quote) Spread() float64 {
	if q.Bid <= 0 || q.Ask <= 0 {
		return math.NaN()
	}
	return q.Ask - q.Bid
}
