package cvm

import (
	"context"

	"github.com/cassitly/cvm-go/internal/bridge"
)

// bridgeWrapper adapts the internal bridge to the public Bridge interface.
type bridgeWrapper struct {
	impl *bridge.Bridge
}

// Compile-time check that bridgeWrapper implements the Bridge interface.
var _ Bridge = (*bridgeWrapper)(nil)

// newBridgeImpl spawns the bridge process and wraps it in the public
// interface. Options is a type alias to config.Options, so the applied
// options pass straight through.
func newBridgeImpl(ctx context.Context, opts []Option) (Bridge, error) {
	impl := bridge.New()
	if err := impl.Start(ctx, applyOptions(opts)); err != nil {
		return nil, err
	}

	return &bridgeWrapper{impl: impl}, nil
}

// Call implements the Bridge interface.
func (b *bridgeWrapper) Call(ctx context.Context, method string, params ...any) (any, error) {
	return b.impl.Call(ctx, method, params...)
}

// FS implements the Bridge interface.
func (b *bridgeWrapper) FS() *FS {
	return b.impl.FS()
}

// Close implements the Bridge interface.
func (b *bridgeWrapper) Close() error {
	return b.impl.Close()
}
