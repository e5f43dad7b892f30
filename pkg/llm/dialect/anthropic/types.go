package anthropic

import "encoding/json"

// frame represents one streaming event payload of the Messages API. The
// "type" field discriminates; a full non-streamed response reuses the same
// struct with type "message" and top-level role/content/stop_reason.
type frame struct {
	Type  string `json:"type"`
	Index *int   `json:"index,omitempty"`

	// message_start
	Message *message `json:"message,omitempty"`

	// content_block_start
	ContentBlock *contentBlock `json:"content_block,omitempty"`

	// content_block_delta / message_delta
	Delta *deltaPayload `json:"delta,omitempty"`

	// message_delta carries output-token usage at the top level
	Usage *usage `json:"usage,omitempty"`

	// error events
	Error *apiError `json:"error,omitempty"`

	// Full-body fields (type == "message")
	ID         string         `json:"id,omitempty"`
	Role       string         `json:"role,omitempty"`
	Content    []contentBlock `json:"content,omitempty"`
	Model      string         `json:"model,omitempty"`
	StopReason string         `json:"stop_reason,omitempty"`
}

// message is the envelope inside message_start.
type message struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Role  string `json:"role"`
	Model string `json:"model"`
	Usage *usage `json:"usage,omitempty"`
}

// contentBlock is a block inside content_block_start or a full response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

// deltaPayload is the delta union: text_delta, input_json_delta, or the
// stop fields of message_delta.
type deltaPayload struct {
	Type        string  `json:"type,omitempty"`
	Text        string  `json:"text,omitempty"`
	PartialJSON string  `json:"partial_json,omitempty"`
	StopReason  string  `json:"stop_reason,omitempty"`
	StopSeq     *string `json:"stop_sequence,omitempty"`
}

type usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
