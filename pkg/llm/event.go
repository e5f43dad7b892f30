package llm

// EventKind discriminates the normalized events produced by a wire dialect.
// Every RawEvent derives from exactly one complete frame; dialects never
// construct events from partial frames.
type EventKind int

const (
	// KindIgnorable marks frames that carry no actionable information
	// (heartbeats, keep-alives, bare stream-closed markers). Ignorable
	// events never reach merge state and never produce deltas.
	KindIgnorable EventKind = iota

	// KindFullMessage is a complete, non-streamed message for one choice,
	// reduced to a finished message in a single merge step.
	KindFullMessage

	// KindBlockStart opens a content block: carries the role hint and an
	// optional initial text seed.
	KindBlockStart

	// KindTextDelta appends a text fragment to a block's content.
	KindTextDelta

	// KindFunctionCallStart names the function/tool a block is calling.
	KindFunctionCallStart

	// KindFunctionCallArgsDelta appends a raw argument-text fragment.
	// Fragments are not valid JSON on their own and are concatenated
	// verbatim until finalization.
	KindFunctionCallArgsDelta

	// KindBlockStop closes a content block without changing its status.
	KindBlockStop

	// KindStreamDone is the terminal event: carries the stop reason and,
	// when the provider supplies it, usage metrics.
	KindStreamDone

	// KindError is an upstream error payload carried in-band by the stream.
	KindError
)

// String returns the kind name for logging.
func (k EventKind) String() string {
	switch k {
	case KindIgnorable:
		return "ignorable"
	case KindFullMessage:
		return "full_message"
	case KindBlockStart:
		return "block_start"
	case KindTextDelta:
		return "text_delta"
	case KindFunctionCallStart:
		return "function_call_start"
	case KindFunctionCallArgsDelta:
		return "function_call_args_delta"
	case KindBlockStop:
		return "block_stop"
	case KindStreamDone:
		return "stream_done"
	case KindError:
		return "error"
	}
	return "unknown"
}

// RawEvent is the normalized unit emitted by a dialect after parsing one
// complete frame. Which fields are meaningful depends on Kind.
type RawEvent struct {
	Kind EventKind

	// Index identifies the logical content block or parallel choice the
	// event belongs to. A nil Index means the event is message-scoped and
	// applies to every active block (dialects that stream one message at a
	// time finalize this way).
	Index *int

	// Role is the role hint on a BlockStart. RoleUnknown when the frame
	// named no role.
	Role Role

	// Text is the fragment for TextDelta, or the initial seed for
	// BlockStart (commonly empty).
	Text string

	// Name is the function/tool name for FunctionCallStart.
	Name string

	// Args is the raw, untrimmed argument-text fragment for
	// FunctionCallArgsDelta.
	Args string

	// StopReason is the provider stop reason on StreamDone and is mapped
	// to a terminal status by the accumulator.
	StopReason string

	// Usage carries token metrics when the frame included them. Providers
	// split usage across frames; the accumulator merges non-zero fields.
	Usage *Usage

	// Full is the reduced payload for FullMessage events.
	Full *FullPayload

	// Err is the provider's own message text for Error events, and
	// ErrType its error type when the provider named one.
	Err     string
	ErrType string

	// Model is the model name when the frame named one.
	Model string
}

// FullPayload is a complete non-streamed message for one choice, already
// mapped out of the provider's envelope. Arguments is raw JSON text; it is
// parsed only when the accumulator finalizes the message.
type FullPayload struct {
	Role         Role
	Content      string
	FunctionName string
	Arguments    string
	StopReason   string
	Usage        *Usage
}

// At returns a pointer to index i, for building index-scoped events.
func At(i int) *int { return &i }
