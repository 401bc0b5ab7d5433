// Package feed implements the market data sources that drive a run.
//
// Sources:
//   - WebSocket: live broker bridge streaming account, symbol and quote messages
//   - Replay: recorded quotes from Postgres/TimescaleDB, replayed in time order
//
// Every quote is one update event for the collection driver. Sources deliver
// events on a channel and must stop sending once their context is cancelled.
package feed
