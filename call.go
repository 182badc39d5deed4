package cvm

import (
	"context"

	"github.com/cassitly/cvm-go/internal/bridge"
)

// Call spawns a bridge process, invokes a single method, and tears the
// process down again.
//
// Each invocation pays the full process startup cost, so anything beyond
// a one-off call should hold a Bridge from New instead.
//
// Example:
//
//	result, err := cvm.Call(ctx, "exists", []any{"notes.txt"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result)
func Call(ctx context.Context, method string, params []any, opts ...Option) (any, error) {
	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	log = log.With("component", "call")
	log.Debug("Starting one-shot call", "method", method)

	b := bridge.New()
	if err := b.Start(ctx, options); err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			log.Warn("Failed to close bridge", "error", closeErr)
		}
	}()

	return b.Call(ctx, method, params...)
}
