// Package sse implements the frame layer of streaming chat-completion
// transports: splitting an arbitrarily-chunked byte stream into complete
// blank-line-delimited frames, and parsing a frame's field lines into an
// Event. It handles both the implicit data-only convention (OpenAI-style)
// and the explicit named-event convention (Anthropic-style); telling the
// two apart is the dialect layer's job.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

// Event represents a single parsed SSE event, delimited by a blank line in
// the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this
	// event, joined with "\n" (per the SSE spec, multiple data fields are
	// joined with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// addLine folds one non-empty, non-comment SSE line into the event and
// reports whether the line contributed a recognized field.
//
// Per the SSE spec, a line has the form "field:value" where the first
// space after the colon is optional and stripped if present.
func (e *Event) addLine(line string, hasData bool) bool {
	var field, value string

	if before, after, ok := strings.Cut(line, ":"); ok {
		field = before
		// Strip a single leading space after the colon, per spec.
		value = strings.TrimPrefix(after, " ")
	} else {
		// Line with no colon: the entire line is the field name with
		// an empty value.
		field = line
	}

	switch field {
	case "data":
		if hasData && e.Data != "" {
			// Multiple data fields are joined with "\n".
			e.Data += "\n"
		}
		e.Data += value
		return true
	case "event":
		e.Type = value
		return true
	case "id":
		e.ID = value
		return true
	default:
		// * "retry" is intentionally ignored — not relevant here.
		// * Other unknown fields are ignored per the SSE spec.
		return false
	}
}

// ParseFrame parses one complete frame's field lines into an Event.
// Comment lines (leading ':') are skipped, trailing carriage returns are
// stripped so CRLF streams parse identically to LF streams. The second
// return value is false when the frame carried no recognized field at all
// (e.g. a keep-alive blank or comment-only frame).
func ParseFrame(frame string) (Event, bool) {
	var ev Event
	hasData := false

	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if ev.addLine(line, hasData) {
			hasData = true
		}
	}

	return ev, hasData
}
