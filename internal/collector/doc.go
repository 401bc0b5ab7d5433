// Package collector implements the Collection Driver.
//
// The Collection Driver:
//   - Walks the instrument catalog once, one identifier per update event
//   - Skips excluded and invalid instruments, admits the rest
//   - Samples the live spread of every admitted instrument on each event
//     until all of them reach the sample target together
//   - Writes the asset file, one record per event, then signals stop
//
// The driver does one unit of work per Step and never blocks; the host owns
// the event loop.
package collector
