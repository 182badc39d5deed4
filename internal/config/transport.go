// Package config provides configuration types for the bridge.
package config

import "context"

// Transport defines the interface for bridge process communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods.
//
// The default implementation is NodeTransport which spawns a subprocess.
// Custom transports can be injected via Options.Transport.
type Transport interface {
	// Start initializes the transport and prepares it for communication.
	// This is called before any frames are sent or received.
	Start(ctx context.Context) error

	// ReadFrames returns channels for receiving frames and errors.
	// The frame channel yields decoded JSON objects from the bridge
	// process. The error channel carries terminal conditions only (read
	// failure, process exit); malformed frames are dropped, not reported.
	// Both channels are closed when reading completes.
	ReadFrames(ctx context.Context) (<-chan map[string]any, <-chan error)

	// SendFrame sends one frame payload to the bridge process.
	// The data should be a compact JSON object; the frame delimiter is
	// appended by the transport. Safe for concurrent use.
	SendFrame(ctx context.Context, data []byte) error

	// Close terminates the transport and releases resources.
	// It's safe to call Close multiple times.
	Close() error
}
