// Package database provides the connection pool for the recorded-quote store.
//
// The replay source reads from Postgres/TimescaleDB:
//   - instruments: per-symbol metadata captured from the broker
//   - quotes: recorded bid/ask ticks (hypertable on ts)
package database
