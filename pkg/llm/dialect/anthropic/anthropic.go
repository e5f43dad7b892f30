// Package anthropic normalizes the Messages API wire format: explicit
// framing where every frame names its event type, with several subtypes
// (ping, message_stop) that carry nothing actionable and are dropped
// before reaching the accumulator.
package anthropic

import (
	"encoding/json"
	"strings"

	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/sse"
)

const dialectName = "anthropic"

// dialect implements the Dialect interface for Anthropic's Messages API.
type dialect struct{}

// New returns the Anthropic dialect.
func New() *dialect { return &dialect{} }

func (d *dialect) Name() string {
	return dialectName
}

func (d *dialect) CanHandle(payload []byte) bool {
	var probe struct {
		Type       string `json:"type"`
		Model      string `json:"model"`
		StopReason string `json:"stop_reason"`
	}

	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}

	if strings.HasPrefix(probe.Model, "claude-") {
		return true
	}

	// Full response structure
	if probe.Type == "message" && probe.StopReason != "" {
		return true
	}

	// Streaming event names are the dialect's structural signature.
	switch probe.Type {
	case "message_start", "content_block_start", "content_block_delta",
		"content_block_stop", "message_delta", "message_stop", "ping":
		return true
	}

	return false
}

// Normalize maps one complete frame to normalized events. The event name is
// the primary dispatch key; when the transport omitted it, the payload's
// own "type" field is used.
func (d *dialect) Normalize(ev sse.Event) ([]llm.RawEvent, error) {
	data := strings.TrimSpace(ev.Data)
	if data == "" {
		return ignorable()
	}

	var fr frame
	if err := json.Unmarshal([]byte(data), &fr); err != nil {
		return nil, &llm.DecodeError{Frame: data, Err: err}
	}

	name := ev.Type
	if name == "" {
		name = fr.Type
	}

	switch name {
	case "ping", "message_stop":
		// Heartbeats; message_stop carries no role/content/usage either —
		// the terminal transition rides on message_delta.
		return ignorable()

	case "error":
		msg := data
		typ := ""
		if fr.Error != nil {
			msg = fr.Error.Message
			typ = fr.Error.Type
		}
		return []llm.RawEvent{{Kind: llm.KindError, Err: msg, ErrType: typ}}, nil

	case "message_start":
		out := llm.RawEvent{Kind: llm.KindBlockStart, Index: llm.At(0)}
		if fr.Message != nil {
			out.Role = llm.ParseRole(fr.Message.Role)
			out.Model = fr.Message.Model
			out.Usage = convertUsage(fr.Message.Usage)
		}
		return []llm.RawEvent{out}, nil

	case "content_block_start":
		if fr.ContentBlock == nil {
			return nil, &llm.UnexpectedShapeError{Dialect: dialectName}
		}
		idx := indexOf(fr.Index)
		if fr.ContentBlock.Type == "tool_use" {
			return []llm.RawEvent{{
				Kind:  llm.KindFunctionCallStart,
				Index: llm.At(idx),
				Name:  fr.ContentBlock.Name,
			}}, nil
		}
		return []llm.RawEvent{{
			Kind:  llm.KindBlockStart,
			Index: llm.At(idx),
			Text:  fr.ContentBlock.Text,
		}}, nil

	case "content_block_delta":
		if fr.Delta == nil {
			return nil, &llm.UnexpectedShapeError{Dialect: dialectName}
		}
		idx := indexOf(fr.Index)
		switch fr.Delta.Type {
		case "text_delta":
			return []llm.RawEvent{{
				Kind:  llm.KindTextDelta,
				Index: llm.At(idx),
				Text:  fr.Delta.Text,
			}}, nil
		case "input_json_delta":
			// Verbatim, untrimmed: whitespace inside JSON fragments
			// matters once concatenated.
			return []llm.RawEvent{{
				Kind:  llm.KindFunctionCallArgsDelta,
				Index: llm.At(idx),
				Args:  fr.Delta.PartialJSON,
			}}, nil
		default:
			// thinking_delta, signature_delta and future subtypes carry
			// no content, role, or argument information.
			return ignorable()
		}

	case "content_block_stop":
		return []llm.RawEvent{{
			Kind:  llm.KindBlockStop,
			Index: llm.At(indexOf(fr.Index)),
		}}, nil

	case "message_delta":
		// Message-scoped terminal: nil index finalizes every active block.
		out := llm.RawEvent{Kind: llm.KindStreamDone, Usage: convertUsage(fr.Usage)}
		if fr.Delta != nil {
			out.StopReason = fr.Delta.StopReason
		}
		return []llm.RawEvent{out}, nil

	case "message":
		// A full, non-streamed response embedded in a frame.
		return d.NormalizeResponse([]byte(data))
	}

	return nil, &llm.UnexpectedShapeError{Dialect: dialectName}
}

// NormalizeResponse maps a complete Messages API body to a single
// FullMessage event. The Messages API has no parallel choices; the one
// message lands on index 0.
func (d *dialect) NormalizeResponse(body []byte) ([]llm.RawEvent, error) {
	var resp frame
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &llm.DecodeError{Frame: string(body), Err: err}
	}

	if resp.Type == "error" || resp.Error != nil {
		msg := string(body)
		typ := ""
		if resp.Error != nil {
			msg = resp.Error.Message
			typ = resp.Error.Type
		}
		return []llm.RawEvent{{Kind: llm.KindError, Err: msg, ErrType: typ}}, nil
	}

	if resp.Type != "message" || len(resp.Content) == 0 {
		return nil, &llm.UnexpectedShapeError{Dialect: dialectName}
	}

	full := &llm.FullPayload{
		Role:       llm.ParseRole(resp.Role),
		StopReason: resp.StopReason,
		Usage:      convertUsage(resp.Usage),
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			sb.WriteString(block.Text)
		case "tool_use":
			if full.FunctionName == "" {
				full.FunctionName = block.Name
				full.Arguments = string(block.Input)
			}
		}
	}
	full.Content = sb.String()

	return []llm.RawEvent{{
		Kind:  llm.KindFullMessage,
		Index: llm.At(0),
		Full:  full,
		Model: resp.Model,
	}}, nil
}

func indexOf(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}

// convertUsage folds the split usage reporting: message_start carries input
// tokens (plus cache counts), message_delta carries output tokens.
func convertUsage(u *usage) *llm.Usage {
	if u == nil {
		return nil
	}
	return &llm.Usage{
		PromptTokens:             u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens,
		CompletionTokens:         u.OutputTokens,
		CacheCreationInputTokens: u.CacheCreationInputTokens,
		CacheReadInputTokens:     u.CacheReadInputTokens,
	}
}

func ignorable() ([]llm.RawEvent, error) {
	return []llm.RawEvent{{Kind: llm.KindIgnorable}}, nil
}
