package sse

import "strings"

// Split appends chunk to the carry-over buffer and extracts every complete
// frame. A frame ends at a blank line: "\n\n", or "\r\n\r\n" for CRLF
// streams. The text after the last delimiter — possibly empty, possibly a
// half-delimiter waiting for its other half — is returned as the new
// carry-over buffer, never discarded and never guessed-complete.
//
// Split is a pure function over explicit state: callers thread the returned
// rest back in on the next call. Delimiter search matches only the ASCII
// control characters above, so multi-byte payload text survives any chunk
// boundary, including splits inside a UTF-8 sequence.
func Split(buffer, chunk string) (frames []string, rest string) {
	rest = buffer + chunk
	for {
		start, width := nextDelimiter(rest)
		if start < 0 {
			return frames, rest
		}
		frames = append(frames, rest[:start])
		rest = rest[start+width:]
	}
}

// nextDelimiter locates the earliest frame delimiter in s, returning its
// byte offset and width, or (-1, 0) when s holds no complete delimiter.
func nextDelimiter(s string) (start, width int) {
	lf := strings.Index(s, "\n\n")
	crlf := strings.Index(s, "\r\n\r\n")

	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0 || (lf >= 0 && lf < crlf):
		return lf, 2
	default:
		return crlf, 4
	}
}

// Splitter owns the carry-over buffer for one stream session. Sessions must
// not share a Splitter; each concurrent response gets its own instance.
type Splitter struct {
	rest string
}

// NewSplitter returns a Splitter with an empty carry-over buffer.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Advance feeds newly-received bytes and returns the complete frames they
// unlocked, in order. An incomplete tail is retained for the next call.
func (s *Splitter) Advance(chunk string) []string {
	frames, rest := Split(s.rest, chunk)
	s.rest = rest
	return frames
}

// Rest returns the current carry-over buffer. Non-empty rest after the
// transport closes means the stream ended mid-frame.
func (s *Splitter) Rest() string {
	return s.rest
}
