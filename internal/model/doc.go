// Package model defines shared data types used across the asset generator.
//
// Conventions:
//   - Prices and spreads: float64 in quote currency units (spread = ask - bid)
//   - Session times: time.Duration offset from UTC midnight
//   - Identifiers: the display name doubles as catalog identifier
package model
