// Package host runs a feed source and the collection driver together.
//
// The host:
//   - Runs the source and the event loop under one errgroup
//   - Applies account and symbol events to the live catalog
//   - Applies each quote and steps the driver once per quote
//   - Stops when the driver reaches its terminal phase
//
// Catalog mutation and driver steps happen on the event loop goroutine only.
package host
