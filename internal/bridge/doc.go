// Package bridge implements the managed connection to the bridge process.
//
// The bridge package wires the subprocess transport, the protocol
// controller, and the filesystem facade into one lifecycle. A Bridge spawns
// the runtime, serves concurrent calls against it, and tears everything
// down on Close:
//   - Blocking calls with per-call timeouts and response correlation
//   - A typed virtual filesystem facade over the generic call surface
//   - Supervision that logs bridge process death even between calls
//
// The Bridge uses the protocol package for request/response correlation and
// manages its own goroutine for connection monitoring.
package bridge
