// Package vfs exposes the bridge's virtual filesystem as typed methods.
//
// Every method forwards to one named operation on the bridge process and
// coerces the decoded result into the documented Go type. Results arrive as
// generic JSON values, so coercion failures surface as ResultTypeError
// rather than panics.
package vfs

import (
	"context"

	"github.com/cassitly/cvm-go/internal/errors"
)

// Caller invokes one named method on the bridge process and returns its
// decoded result.
type Caller interface {
	Call(ctx context.Context, method string, params ...any) (any, error)
}

// FS is the typed filesystem facade. The zero value is not usable; construct
// one with New.
type FS struct {
	caller Caller
}

// New wraps a caller in the typed filesystem facade.
func New(caller Caller) *FS {
	return &FS{caller: caller}
}

// CreateFile creates a file at path with the given content. When overwrite
// is false the call fails if the file already exists.
func (f *FS) CreateFile(ctx context.Context, path, content string, overwrite bool) error {
	_, err := f.caller.Call(ctx, "createFile", path, content, overwrite)

	return err
}

// ReadFile returns the contents of the file at path.
func (f *FS) ReadFile(ctx context.Context, path string) (string, error) {
	result, err := f.caller.Call(ctx, "readFile", path)
	if err != nil {
		return "", err
	}

	return asString("readFile", result)
}

// WriteFile replaces the contents of the file at path, creating it if needed.
func (f *FS) WriteFile(ctx context.Context, path, content string) error {
	_, err := f.caller.Call(ctx, "writeFile", path, content)

	return err
}

// AppendFile appends content to the file at path.
func (f *FS) AppendFile(ctx context.Context, path, content string) error {
	_, err := f.caller.Call(ctx, "appendFile", path, content)

	return err
}

// Unlink removes the file at path.
func (f *FS) Unlink(ctx context.Context, path string) error {
	_, err := f.caller.Call(ctx, "unlink", path)

	return err
}

// Mkdir creates a directory at path.
func (f *FS) Mkdir(ctx context.Context, path string) error {
	_, err := f.caller.Call(ctx, "mkdir", path)

	return err
}

// ReadDir lists the names of the entries in the directory at path.
func (f *FS) ReadDir(ctx context.Context, path string) ([]string, error) {
	result, err := f.caller.Call(ctx, "readdir", path)
	if err != nil {
		return nil, err
	}

	return asStringSlice("readdir", result)
}

// Rename moves the entry at oldPath to newPath.
func (f *FS) Rename(ctx context.Context, oldPath, newPath string) error {
	_, err := f.caller.Call(ctx, "rename", oldPath, newPath)

	return err
}

// Stat returns the metadata object for the entry at path.
func (f *FS) Stat(ctx context.Context, path string) (map[string]any, error) {
	result, err := f.caller.Call(ctx, "stat", path)
	if err != nil {
		return nil, err
	}

	return asMap("stat", result)
}

// Exists reports whether an entry exists at path.
func (f *FS) Exists(ctx context.Context, path string) (bool, error) {
	result, err := f.caller.Call(ctx, "exists", path)
	if err != nil {
		return false, err
	}

	return asBool("exists", result)
}

// Save serializes the filesystem state into a JSON snapshot string.
func (f *FS) Save(ctx context.Context) (string, error) {
	result, err := f.caller.Call(ctx, "save")
	if err != nil {
		return "", err
	}

	return asString("save", result)
}

// Load restores filesystem state from a snapshot produced by Save.
func (f *FS) Load(ctx context.Context, snapshot string) error {
	_, err := f.caller.Call(ctx, "load", snapshot)

	return err
}

// asString coerces a call result to a string.
func asString(method string, result any) (string, error) {
	s, ok := result.(string)
	if !ok {
		return "", &errors.ResultTypeError{Method: method, Result: result}
	}

	return s, nil
}

// asBool coerces a call result to a bool.
func asBool(method string, result any) (bool, error) {
	b, ok := result.(bool)
	if !ok {
		return false, &errors.ResultTypeError{Method: method, Result: result}
	}

	return b, nil
}

// asMap coerces a call result to an object.
func asMap(method string, result any) (map[string]any, error) {
	m, ok := result.(map[string]any)
	if !ok {
		return nil, &errors.ResultTypeError{Method: method, Result: result}
	}

	return m, nil
}

// asStringSlice coerces a call result to a list of strings. JSON arrays
// decode as []any, so each element is checked individually.
func asStringSlice(method string, result any) ([]string, error) {
	items, ok := result.([]any)
	if !ok {
		return nil, &errors.ResultTypeError{Method: method, Result: result}
	}

	names := make([]string, 0, len(items))

	for _, item := range items {
		name, ok := item.(string)
		if !ok {
			return nil, &errors.ResultTypeError{Method: method, Result: result}
		}

		names = append(names, name)
	}

	return names, nil
}
