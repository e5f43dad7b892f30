// Package eventstream defines transport-neutral event payloads emitted
// after a response finishes decoding, and the Publisher interface the
// worker pool delivers them through.
package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/spool/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeMessageDecoded is emitted once a streamed or non-streamed
	// response has been reduced to finished messages.
	EventTypeMessageDecoded = "spool.message.decoded"
)

// MessageDecodedEvent is a transport-neutral payload for one decoded
// response.
type MessageDecodedEvent struct {
	SchemaVersion int           `json:"schema_version"`
	EventType     string        `json:"event_type"`
	EventID       string        `json:"event_id"`
	EmittedAt     time.Time     `json:"emitted_at"`
	Dialect       string        `json:"dialect"`
	Model         string        `json:"model,omitempty"`
	Messages      []llm.Message `json:"messages"`
	Usage         *llm.Usage    `json:"usage,omitempty"`
}

// NewMessageDecodedEvent builds a v1 event for the given decode result.
func NewMessageDecodedEvent(dialect string, msgs []llm.Message, usage *llm.Usage) *MessageDecodedEvent {
	ev := &MessageDecodedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeMessageDecoded,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Dialect:       dialect,
		Messages:      msgs,
		Usage:         usage,
	}
	if len(msgs) > 0 {
		ev.Model = msgs[0].Model
	}
	return ev
}
