package llm

// Message is the terminal artifact of one decoded response block: the full
// reduction of every delta seen for its index, with a terminal status.
// FunctionArgs is parsed from the concatenated argument text only at
// finalization; Arguments preserves the raw text as received.
type Message struct {
	// Index is the block/choice this message was reduced from.
	Index int `json:"index"`

	// Role is the last non-unknown role seen for the block.
	Role Role `json:"role"`

	// Content is the concatenation of every text fragment in order.
	Content string `json:"content"`

	// FunctionName is the frozen function/tool name, if the block carried
	// a function call.
	FunctionName string `json:"function_name,omitempty"`

	// Arguments is the raw accumulated argument text, verbatim.
	Arguments string `json:"arguments,omitempty"`

	// FunctionArgs is Arguments parsed as a structured value. Nil unless
	// the block finalized with non-empty argument text.
	FunctionArgs map[string]any `json:"function_args,omitempty"`

	// Status is one of the terminal statuses.
	Status Status `json:"status"`

	// StopReason is the provider's stop reason, when one was given.
	StopReason string `json:"stop_reason,omitempty"`

	// Model that produced the message, when the stream named one.
	Model string `json:"model,omitempty"`
}

// IsFunctionCall reports whether the block carried a function/tool call.
func (m *Message) IsFunctionCall() bool {
	return m.FunctionName != ""
}
