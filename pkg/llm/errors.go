package llm

import "fmt"

// The decode pipeline reports four failure classes, all as explicit error
// values. Transport incompleteness is not among them: an incomplete frame
// is represented by a non-empty carry-over buffer, never by an error.

// DecodeError reports a structurally complete frame whose payload is not
// valid JSON. It does not corrupt buffer state for subsequent frames.
type DecodeError struct {
	Frame string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProtocolViolationError reports an event that is invalid given the current
// merge state: an update for a block already in a terminal status, or a
// terminal transition whose accumulated argument text does not parse.
type ProtocolViolationError struct {
	Index  int
	Reason string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("protocol violation on block %d: %s", e.Index, e.Reason)
}

// UnexpectedShapeError reports a frame that matches neither the streaming
// envelope nor the full-message shape of its dialect.
type UnexpectedShapeError struct {
	Dialect string
}

func (e *UnexpectedShapeError) Error() string {
	return fmt.Sprintf("unexpected %s response shape", e.Dialect)
}

// UpstreamError carries an error payload the provider sent in-band. The
// provider's own message text is preserved, not wrapped generically.
type UpstreamError struct {
	Message string
	Type    string
}

func (e *UpstreamError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("upstream error (%s): %s", e.Type, e.Message)
	}
	return "upstream error: " + e.Message
}
