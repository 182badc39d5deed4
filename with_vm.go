package cvm

import (
	"context"
	"fmt"
)

// WithVM manages bridge lifecycle with automatic cleanup.
//
// This helper spawns a bridge with the provided options, executes the
// callback, and closes the bridge when the callback returns. The
// callback receives a connected Bridge that is ready for use.
//
// If the callback returns an error, it is returned to the caller. If
// Close fails, a warning is logged but does not override the callback's
// error.
//
// Example:
//
//	err := cvm.WithVM(ctx, func(vm cvm.Bridge) error {
//		return vm.FS().WriteFile(ctx, "notes.txt", "hello")
//	})
func WithVM(ctx context.Context, fn func(Bridge) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	vm, err := New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	defer func() {
		if closeErr := vm.Close(); closeErr != nil {
			log.Warn("failed to close bridge", "error", closeErr)
		}
	}()

	return fn(vm)
}
