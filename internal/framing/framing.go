package framing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/cassitly/cvm-go/internal/errors"
)

// Delimiter terminates every frame on the wire. Compact JSON never contains
// two consecutive line breaks, so the delimiter cannot appear inside a frame.
const Delimiter = "\n\n"

var delimiter = []byte(Delimiter)

// Encode marshals v as compact JSON and appends the frame delimiter,
// producing a complete wire frame.
func Encode(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal frame: %w", err)
	}

	return append(payload, delimiter...), nil
}

// AppendDelimiter returns payload with the frame delimiter appended.
// The result is always a fresh slice so the caller's backing array is
// never mutated, even when it has spare capacity.
func AppendDelimiter(payload []byte) []byte {
	framed := make([]byte, len(payload)+len(delimiter))
	copy(framed, payload)
	copy(framed[len(payload):], delimiter)

	return framed
}

// Split is a bufio.SplitFunc that yields one frame payload per token,
// excluding the delimiter. Partial frames are held back until the
// delimiter arrives; a trailing unterminated frame at end-of-stream is
// incomplete and is discarded.
func Split(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.Index(data, delimiter); i >= 0 {
		return i + len(delimiter), data[:i], nil
	}

	if atEOF {
		return len(data), nil, nil
	}

	return 0, nil, nil
}

// Decode parses a frame payload into a JSON object.
//
// Returns a FrameDecodeError if the payload is not valid JSON or not a JSON
// object; callers are expected to drop such frames and keep decoding.
func Decode(data []byte) (map[string]any, error) {
	var frame map[string]any

	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, &errors.FrameDecodeError{
			RawData: string(data),
			Err:     err,
		}
	}

	return frame, nil
}
