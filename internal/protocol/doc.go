// Package protocol implements request/response correlation for the bridge.
//
// The protocol package provides a Controller that assigns each outgoing
// call a unique id, tracks the call in a pending table, and routes the
// response frame carrying that id back to the blocked caller. A single
// read loop owns all routing, so calls wait on a per-request channel
// instead of polling shared state.
//
// The Controller handles:
//   - Sending request frames with unique ids
//   - Receiving and correlating response frames
//   - Per-call timeout enforcement
//   - Failing outstanding calls when the bridge process dies
//
// Example usage:
//
//	transport := subprocess.NewNodeTransport(log, options)
//	transport.Start(ctx)
//
//	controller := protocol.NewController(log, transport, 60*time.Second)
//	controller.Start(ctx)
//
//	// Invoke a remote method and wait for its result
//	result, err := controller.Call(ctx, "echo", []any{"hello"})
package protocol
