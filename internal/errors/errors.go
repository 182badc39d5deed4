package errors

import (
	"errors"
	"fmt"
)

// BridgeError is the base interface for all bridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*NodeNotFoundError)(nil)
	_ BridgeError = (*SpawnError)(nil)
	_ BridgeError = (*ProcessExitError)(nil)
	_ BridgeError = (*RemoteError)(nil)
	_ BridgeError = (*FrameDecodeError)(nil)
	_ BridgeError = (*ResultTypeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrBridgeNotConnected indicates the bridge is not connected.
	ErrBridgeNotConnected = errors.New("bridge not connected")

	// ErrBridgeAlreadyConnected indicates the bridge is already connected.
	ErrBridgeAlreadyConnected = errors.New("bridge already connected")

	// ErrBridgeClosed indicates the bridge has been closed and cannot be reused.
	ErrBridgeClosed = errors.New("bridge closed: bridges are single-use, create a new one with New()")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrCallTimeout indicates a call received no response within its deadline.
	ErrCallTimeout = errors.New("call timeout")

	// ErrControllerStopped indicates the protocol controller has stopped.
	ErrControllerStopped = errors.New("protocol controller stopped")

	// ErrStdinClosed indicates stdin was closed due to context cancellation.
	ErrStdinClosed = errors.New("stdin closed")
)

// NodeNotFoundError indicates the Node runtime binary was not found.
type NodeNotFoundError struct {
	SearchedPaths []string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node runtime not found in: %v", e.SearchedPaths)
}

// IsBridgeError implements BridgeError.
func (e *NodeNotFoundError) IsBridgeError() bool { return true }

// SpawnError indicates the bridge process could not be started.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn bridge process: %v", e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *SpawnError) IsBridgeError() bool { return true }

// ProcessExitError indicates the bridge process exited while the bridge
// was still open. All calls outstanding at that point fail with this error.
type ProcessExitError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bridge process exited (code %d): %v", e.ExitCode, e.Err)
	}

	if e.Stderr != "" {
		return fmt.Sprintf("bridge process exited (code %d): %s", e.ExitCode, e.Stderr)
	}

	return fmt.Sprintf("bridge process exited (code %d)", e.ExitCode)
}

func (e *ProcessExitError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ProcessExitError) IsBridgeError() bool { return true }

// RemoteError indicates the remote process reported a failure for a call.
// Message carries the remote-provided text.
type RemoteError struct {
	Method  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error from %q: %s", e.Method, e.Message)
}

// IsBridgeError implements BridgeError.
func (e *RemoteError) IsBridgeError() bool { return true }

// FrameDecodeError indicates a frame between delimiters was not valid JSON.
// Frames that fail to decode are dropped and decoding continues; this error
// only ever surfaces in logs, never to callers.
type FrameDecodeError struct {
	RawData string
	Err     error
}

func (e *FrameDecodeError) Error() string {
	return fmt.Sprintf("failed to decode frame: %v", e.Err)
}

func (e *FrameDecodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *FrameDecodeError) IsBridgeError() bool { return true }

// ResultTypeError indicates a call result did not have the shape a typed
// wrapper expected.
type ResultTypeError struct {
	Method string
	Result any
}

func (e *ResultTypeError) Error() string {
	return fmt.Sprintf("unexpected %T result from %q", e.Result, e.Method)
}

// IsBridgeError implements BridgeError.
func (e *ResultTypeError) IsBridgeError() bool { return true }
