// Package catalog implements the Instrument Catalog component.
//
// The Instrument Catalog:
//   - Holds the instrument universe reported by the feed, in feed order
//   - Keeps the latest quote per instrument so spreads can be resampled
//   - Rejects unknown, non-tradable and NaN-spread instruments on Load
//   - Carries the account (broker name, live/demo) the feed belongs to
package catalog
