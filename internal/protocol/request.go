package protocol

import (
	"fmt"
	"strconv"
)

// Request is one call frame sent to the bridge process.
//
// Wire format:
//
//	{
//	  "id": "01JD2H4X9GV14Y3Z0B6M7R8KSQ",
//	  "method": "readFile",
//	  "params": ["notes/todo.txt"]
//	}
type Request struct {
	// ID uniquely identifies this request for response correlation
	ID string `json:"id"`

	// Method names the operation to invoke on the remote side
	Method string `json:"method"`

	// Params carries the positional arguments for the method
	Params []any `json:"params"`
}

// Response is one decoded response frame from the bridge process.
//
// Wire format for success:
//
//	{
//	  "id": "01JD2H4X9GV14Y3Z0B6M7R8KSQ",
//	  "result": "file contents"
//	}
//
// Wire format for failure:
//
//	{
//	  "id": "01JD2H4X9GV14Y3Z0B6M7R8KSQ",
//	  "error": {"message": "ENOENT: no such file or directory"}
//	}
type Response map[string]any

// ID returns the frame's correlation id in canonical string form.
// Numeric ids arrive from JSON as float64 and map to the same key that a
// string id with those digits would, so "7" and 7 correlate identically.
func (r Response) ID() (string, bool) {
	raw, ok := r["id"]
	if !ok || raw == nil {
		return "", false
	}

	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return fmt.Sprint(v), true
	}
}

// IsError reports whether the response marks the call as failed. Any
// error value fails the call except the JSON falsy ones: absent, null,
// false, 0, "", an empty object, or an empty array.
func (r Response) IsError() bool {
	_, failed := r.errorValue()

	return failed
}

// ErrorMessage extracts the failure text from the error field. An object
// error contributes its message field, a string error is the message
// itself, and anything else falls back to a generic message.
func (r Response) ErrorMessage() string {
	msg, _ := r.errorValue()

	return msg
}

// Result returns the result field of a successful response. It may be nil
// when the remote method produced no value.
func (r Response) Result() any {
	return r["result"]
}

// unknownErrorMessage stands in when a failed response carries no usable text.
const unknownErrorMessage = "unknown error"

// errorValue interprets the error field, returning the failure message and
// whether the call failed.
func (r Response) errorValue() (string, bool) {
	switch err := r["error"].(type) {
	case nil:
		return "", false

	case bool:
		if !err {
			return "", false
		}

		return unknownErrorMessage, true

	case string:
		if err == "" {
			return "", false
		}

		return err, true

	case float64:
		if err == 0 {
			return "", false
		}

		return strconv.FormatFloat(err, 'f', -1, 64), true

	case map[string]any:
		if len(err) == 0 {
			return "", false
		}

		if msg, ok := err["message"].(string); ok && msg != "" {
			return msg, true
		}

		return unknownErrorMessage, true

	case []any:
		if len(err) == 0 {
			return "", false
		}

		return unknownErrorMessage, true

	default:
		return unknownErrorMessage, true
	}
}
