package cvm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestCall_WithTransport tests the one-shot helper over an injected transport.
func TestCall_WithTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transport := newEchoTransport(func(id, _ string, params []any) map[string]any {
		return map[string]any{"id": id, "result": params[0]}
	})

	result, err := Call(ctx, "echo", []any{"hello"}, WithTransport(transport))
	require.NoError(t, err)
	require.Equal(t, "hello", result)
}

// TestCall_ClosesBridge tests that the one-shot helper tears the transport
// down after the call.
func TestCall_ClosesBridge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transport := resultTransport("done")

	_, err := Call(ctx, "save", nil, WithTransport(transport))
	require.NoError(t, err)
	require.True(t, transport.isClosed())
}

// TestCall_NodeNotFound tests the one-shot helper with an invalid runtime path.
func TestCall_NodeNotFound(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := Call(ctx, "exists", []any{"notes.txt"},
		WithNodePath("/nonexistent/path/to/node"),
	)
	require.Error(t, err)

	_, ok := errors.AsType[*NodeNotFoundError](err)
	require.True(t, ok)
}

// TestCall_RemoteError tests that remote failures surface from the one-shot
// helper.
func TestCall_RemoteError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	transport := newEchoTransport(func(id, _ string, _ []any) map[string]any {
		return map[string]any{"id": id, "error": "boom"}
	})

	_, err := Call(ctx, "explode", nil, WithTransport(transport))
	require.Error(t, err)

	remoteErr, ok := errors.AsType[*RemoteError](err)
	require.True(t, ok)
	require.Equal(t, "boom", remoteErr.Message)
}

// TestCall_CancelledContext tests the one-shot helper with a cancelled context.
func TestCall_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Call(ctx, "ping", nil,
		WithNodePath("/nonexistent/path/to/node"),
	)
	require.Error(t, err)
}
