package openai

// chunk represents one streaming frame of the Chat Completions API.
// Non-streamed responses share the choice envelope with "message" in place
// of "delta", so the same types cover both.
type chunk struct {
	ID      string    `json:"id"`
	Object  string    `json:"object"`
	Created int64     `json:"created"`
	Model   string    `json:"model"`
	Choices []choice  `json:"choices"`
	Usage   *usage    `json:"usage,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

// choice represents one parallel completion within a chunk or response.
type choice struct {
	Index        int      `json:"index"`
	Delta        *payload `json:"delta,omitempty"`
	Message      *payload `json:"message,omitempty"`
	FinishReason *string  `json:"finish_reason,omitempty"`
}

// payload is the delta or message body of a choice.
type payload struct {
	Role    string `json:"role,omitempty"`
	Content any    `json:"content,omitempty"` // string, or []part for multimodal

	// Legacy single-function form
	FunctionCall *functionCall `json:"function_call,omitempty"`

	// Tool-call form
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type functionCall struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

type toolCall struct {
	Index    *int         `json:"index,omitempty"`
	ID       string       `json:"id,omitempty"`
	Type     string       `json:"type,omitempty"`
	Function functionCall `json:"function"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}
