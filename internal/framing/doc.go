// Package framing implements the frame codec for the bridge wire protocol.
//
// A frame is one compact JSON object followed by a blank line ("\n\n").
// The delimiter is out-of-band: compact JSON serialization never produces
// two consecutive line breaks, so scanning for the delimiter is sufficient
// to find frame boundaries regardless of how the byte stream is chunked.
//
// Encode produces outgoing frames; Split is a bufio.SplitFunc for pulling
// frame payloads out of the incoming stream; Decode parses a payload into
// a JSON object and reports malformed payloads as FrameDecodeError so the
// reader can drop them and continue.
package framing
