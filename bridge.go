package cvm

import "context"

// Bridge is a handle on a running bridge process.
//
// A bridge holds one Node subprocess for its whole life and supports any
// number of concurrent calls against it. Responses are matched to calls
// by request id, so the order answers arrive in does not matter.
//
// Example:
//
//	vm, err := cvm.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer vm.Close()
//
//	if err := vm.FS().WriteFile(ctx, "notes.txt", "hello"); err != nil {
//		log.Fatal(err)
//	}
//
//	content, err := vm.FS().ReadFile(ctx, "notes.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(content)
type Bridge interface {
	// Call invokes a named method on the bridge process and blocks until
	// its response arrives, the per-call timeout expires, or ctx is done.
	// The result is the decoded JSON result value, which may be nil for
	// methods that return nothing.
	Call(ctx context.Context, method string, params ...any) (any, error)

	// FS returns the typed virtual filesystem surface. All of its
	// methods go through Call and share its timeout and error behavior.
	FS() *FS

	// Close terminates the bridge process and releases resources.
	// Bridges are single-use: after Close the bridge cannot be restarted.
	// Safe to call multiple times.
	Close() error
}

// New spawns a bridge process and returns a connected Bridge.
//
// ctx bounds startup only. Calls made later carry their own contexts and
// cancelling ctx after New returns does not stop the bridge.
func New(ctx context.Context, opts ...Option) (Bridge, error) {
	return newBridgeImpl(ctx, opts)
}
