// Package cvm provides a Go client for a Node.js virtual machine bridge.
//
// The bridge runs a Node subprocess and exchanges JSON frames with it over
// stdin and stdout. Each call carries a unique request id and responses are
// matched back to callers by that id, so any number of calls can be in
// flight at once and answers may arrive in any order.
//
// # Basic Usage
//
// For a single call, use the Call function:
//
//	result, err := cvm.Call(ctx, "readFile", []any{"notes.txt"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(result)
//
// # Holding a Bridge
//
// For repeated calls, spawn one bridge and reuse it:
//
//	vm, err := cvm.New(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer vm.Close()
//
//	fs := vm.FS()
//	if err := fs.WriteFile(ctx, "notes.txt", "hello"); err != nil {
//		log.Fatal(err)
//	}
//
//	content, err := fs.ReadFile(ctx, "notes.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(content)
//
// Or let WithVM manage the lifecycle:
//
//	err := cvm.WithVM(ctx, func(vm cvm.Bridge) error {
//		return vm.FS().Mkdir(ctx, "data")
//	})
//
// # Logging
//
// The bridge accepts a *slog.Logger for debug output. By default logging
// is disabled:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//		Level: slog.LevelDebug,
//	}))
//
//	vm, err := cvm.New(ctx, cvm.WithLogger(logger))
//
// # Error Handling
//
// Failures reported by the bridge process surface as *RemoteError. Process
// level failures carry their own types:
//
//	_, err := vm.Call(ctx, "readFile", "missing.txt")
//	if remoteErr, ok := errors.AsType[*cvm.RemoteError](err); ok {
//		fmt.Println("bridge reported:", remoteErr.Message)
//	}
//
//	if exitErr, ok := errors.AsType[*cvm.ProcessExitError](err); ok {
//		fmt.Println("process died with code", exitErr.ExitCode)
//	}
//
// # Requirements
//
//   - Go 1.26 or later
//   - Node.js available as node in PATH, or configured via WithNodePath
//   - A bridge script, dist/bridge.js by default, or set WithBridgeScript
package cvm
