// Package dialect normalizes provider-specific wire formats into the shared
// llm.RawEvent set. One implementation exists per streaming convention; the
// accumulator downstream is written once against that shared set and never
// inspects raw payloads.
package dialect

import (
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/sse"
)

// Dialect parses complete frames of one provider wire format into
// normalized events. Implementations are stateless and safe to share
// across sessions.
type Dialect interface {
	// Name returns the canonical dialect name (e.g. "openai", "anthropic").
	Name() string

	// CanHandle returns true if the payload appears to belong to this
	// dialect. Implementations check provider-specific markers such as
	// field names, model name patterns, or envelope structure.
	CanHandle(payload []byte) bool

	// Normalize maps one complete frame to its normalized events. A frame
	// carrying N parallel choices yields N index-tagged events; frames
	// with nothing actionable yield a single Ignorable event. A
	// structurally complete frame with an invalid JSON payload is a
	// *llm.DecodeError — incompleteness is solely the splitter's concern
	// and never reaches Normalize.
	Normalize(ev sse.Event) ([]llm.RawEvent, error)

	// NormalizeResponse maps one complete, non-streamed response body to
	// FullMessage events, one per parallel choice, in choice order.
	NormalizeResponse(body []byte) ([]llm.RawEvent, error)
}
