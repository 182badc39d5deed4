package cvm

import "github.com/cassitly/cvm-go/internal/config"

// Transport defines the interface for bridge process communication.
// Implement this to provide custom transports for testing, mocking,
// or alternative communication methods.
//
// The default implementation spawns a Node subprocess and speaks the
// frame protocol over its stdin and stdout. Custom transports can be
// injected via WithTransport.
type Transport = config.Transport
