// Package openai normalizes the Chat Completions wire format: implicit
// framing where every frame is a single data payload, a "[DONE]" sentinel,
// and per-choice deltas under choices[].delta.
package openai

import (
	"encoding/json"
	"strings"

	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/sse"
)

const (
	dialectName = "openai"

	// doneSentinel is the non-JSON payload closing an OpenAI stream.
	doneSentinel = "[DONE]"
)

// dialect implements the Dialect interface for OpenAI's Chat Completions API.
type dialect struct{}

// New returns the OpenAI dialect.
func New() *dialect { return &dialect{} }

func (d *dialect) Name() string {
	return dialectName
}

func (d *dialect) CanHandle(payload []byte) bool {
	var probe struct {
		Object  string            `json:"object"`
		Model   string            `json:"model"`
		Choices []json.RawMessage `json:"choices"`
	}

	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}

	// "chat.completion" and "chat.completion.chunk" objects
	if strings.HasPrefix(probe.Object, "chat.completion") {
		return true
	}

	if strings.HasPrefix(probe.Model, "gpt-") {
		return true
	}

	// A choices array is the structural signature of the dialect.
	return len(probe.Choices) > 0
}

// Normalize maps one complete frame to normalized events. OpenAI frames
// carry no event name; the data payload alone is dispatched on.
func (d *dialect) Normalize(ev sse.Event) ([]llm.RawEvent, error) {
	data := strings.TrimSpace(ev.Data)
	if data == "" {
		return ignorable()
	}

	// Stream-closed sentinel: message-scoped done with no extra data.
	if data == doneSentinel {
		return []llm.RawEvent{{Kind: llm.KindStreamDone}}, nil
	}

	var ch chunk
	if err := json.Unmarshal([]byte(data), &ch); err != nil {
		return nil, &llm.DecodeError{Frame: data, Err: err}
	}

	if ch.Error != nil {
		return []llm.RawEvent{{Kind: llm.KindError, Err: ch.Error.Message, ErrType: ch.Error.Type}}, nil
	}

	// A full, non-streamed response embedded in a frame is recognized
	// structurally: choices carry "message" rather than "delta".
	if ch.Object == "chat.completion" || hasFullChoices(ch.Choices) {
		return d.NormalizeResponse([]byte(data))
	}

	if len(ch.Choices) == 0 {
		// Usage-only tail chunk (stream_options include_usage): carries
		// metrics but opens no block.
		if ch.Usage != nil {
			return []llm.RawEvent{{Kind: llm.KindStreamDone, Usage: convertUsage(ch.Usage)}}, nil
		}
		if ch.Object == "" {
			return nil, &llm.UnexpectedShapeError{Dialect: dialectName}
		}
		return ignorable()
	}

	events := make([]llm.RawEvent, 0, len(ch.Choices))
	for _, c := range ch.Choices {
		events = append(events, normalizeChoice(c, ch)...)
	}

	if len(events) == 0 {
		return ignorable()
	}
	return events, nil
}

// normalizeChoice expands one streamed choice into its ordered events: role
// announcement, text fragment, function-call fragments, then finish.
func normalizeChoice(c choice, ch chunk) []llm.RawEvent {
	var events []llm.RawEvent
	idx := c.Index

	if c.Delta != nil {
		if c.Delta.Role != "" {
			events = append(events, llm.RawEvent{
				Kind:  llm.KindBlockStart,
				Index: llm.At(idx),
				Role:  llm.ParseRole(c.Delta.Role),
				Model: ch.Model,
			})
		}

		if text := contentText(c.Delta.Content); text != "" {
			events = append(events, llm.RawEvent{
				Kind:  llm.KindTextDelta,
				Index: llm.At(idx),
				Text:  text,
			})
		}

		events = append(events, callEvents(idx, c.Delta)...)
	}

	if c.FinishReason != nil && *c.FinishReason != "" {
		events = append(events, llm.RawEvent{
			Kind:       llm.KindStreamDone,
			Index:      llm.At(idx),
			StopReason: *c.FinishReason,
			Usage:      convertUsage(ch.Usage),
		})
	}

	return events
}

// callEvents maps function_call and tool_calls fragments. Argument text is
// forwarded verbatim: fragments are not valid JSON on their own.
func callEvents(idx int, p *payload) []llm.RawEvent {
	var events []llm.RawEvent

	emit := func(fc functionCall) {
		if fc.Name != "" {
			events = append(events, llm.RawEvent{
				Kind:  llm.KindFunctionCallStart,
				Index: llm.At(idx),
				Name:  fc.Name,
			})
		}
		if fc.Arguments != "" {
			events = append(events, llm.RawEvent{
				Kind:  llm.KindFunctionCallArgsDelta,
				Index: llm.At(idx),
				Args:  fc.Arguments,
			})
		}
	}

	if p.FunctionCall != nil {
		emit(*p.FunctionCall)
	}
	for _, tc := range p.ToolCalls {
		emit(tc.Function)
	}

	return events
}

// NormalizeResponse maps a complete chat.completion body to one FullMessage
// event per parallel choice, in choice order.
func (d *dialect) NormalizeResponse(body []byte) ([]llm.RawEvent, error) {
	var resp chunk
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llm.DecodeError{Frame: string(body), Err: err}
	}

	if resp.Error != nil {
		return []llm.RawEvent{{Kind: llm.KindError, Err: resp.Error.Message, ErrType: resp.Error.Type}}, nil
	}

	if len(resp.Choices) == 0 {
		return nil, &llm.UnexpectedShapeError{Dialect: dialectName}
	}

	events := make([]llm.RawEvent, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		if c.Message == nil {
			return nil, &llm.UnexpectedShapeError{Dialect: dialectName}
		}

		full := &llm.FullPayload{
			Role:    llm.ParseRole(c.Message.Role),
			Content: contentText(c.Message.Content),
			Usage:   convertUsage(resp.Usage),
		}
		if c.FinishReason != nil {
			full.StopReason = *c.FinishReason
		}
		if fc := firstCall(c.Message); fc != nil {
			full.FunctionName = fc.Name
			full.Arguments = fc.Arguments
		}

		events = append(events, llm.RawEvent{
			Kind:  llm.KindFullMessage,
			Index: llm.At(c.Index),
			Full:  full,
			Model: resp.Model,
		})
	}

	return events, nil
}

// contentText flattens a content union (string, or array of typed parts)
// into plain text.
func contentText(content any) string {
	switch c := content.(type) {
	case string:
		return c
	case []any:
		var sb strings.Builder
		for _, item := range c {
			part, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if text, ok := part["text"].(string); ok {
				sb.WriteString(text)
			}
		}
		return sb.String()
	}
	return ""
}

// hasFullChoices reports whether any choice carries a complete message
// rather than a streaming delta.
func hasFullChoices(choices []choice) bool {
	for _, c := range choices {
		if c.Message != nil {
			return true
		}
	}
	return false
}

// firstCall returns the first function/tool call carried by a payload.
func firstCall(p *payload) *functionCall {
	if p.FunctionCall != nil {
		return p.FunctionCall
	}
	if len(p.ToolCalls) > 0 {
		return &p.ToolCalls[0].Function
	}
	return nil
}

func convertUsage(u *usage) *llm.Usage {
	if u == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

func ignorable() ([]llm.RawEvent, error) {
	return []llm.RawEvent{{Kind: llm.KindIgnorable}}, nil
}
