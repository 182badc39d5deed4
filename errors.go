package cvm

import "github.com/cassitly/cvm-go/internal/errors"

// Re-export error types from internal package

// NodeNotFoundError indicates the Node runtime binary was not found.
type NodeNotFoundError = errors.NodeNotFoundError

// SpawnError indicates the bridge process could not be started.
type SpawnError = errors.SpawnError

// ProcessExitError indicates the bridge process exited while the bridge
// was still open.
type ProcessExitError = errors.ProcessExitError

// RemoteError indicates the bridge process reported a failure for a call.
type RemoteError = errors.RemoteError

// FrameDecodeError indicates a frame from the bridge process was not
// valid JSON.
type FrameDecodeError = errors.FrameDecodeError

// ResultTypeError indicates a call result did not have the shape a typed
// wrapper expected.
type ResultTypeError = errors.ResultTypeError

// BridgeError is the base interface for all bridge errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrBridgeNotConnected indicates the bridge is not connected.
	ErrBridgeNotConnected = errors.ErrBridgeNotConnected

	// ErrBridgeAlreadyConnected indicates the bridge is already connected.
	ErrBridgeAlreadyConnected = errors.ErrBridgeAlreadyConnected

	// ErrBridgeClosed indicates the bridge has been closed and cannot be
	// reused.
	ErrBridgeClosed = errors.ErrBridgeClosed

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrStdinClosed indicates a send was attempted after the process
	// stdin pipe was closed.
	ErrStdinClosed = errors.ErrStdinClosed

	// ErrCallTimeout indicates a call received no response within its
	// deadline.
	ErrCallTimeout = errors.ErrCallTimeout

	// ErrControllerStopped indicates an in-flight call was abandoned
	// because the bridge shut down.
	ErrControllerStopped = errors.ErrControllerStopped
)
