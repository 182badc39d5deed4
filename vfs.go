package cvm

import "github.com/cassitly/cvm-go/internal/vfs"

// FS is the typed surface over the bridge's virtual filesystem. Obtain
// one from Bridge.FS. Every method maps onto a single named bridge call
// and shares the bridge's timeout and error behavior.
type FS = vfs.FS
