package eventstream

import "context"

// Publisher publishes decoded-message events to an event stream backend.
type Publisher interface {
	PublishMessage(ctx context.Context, event *MessageDecodedEvent) error
	Close() error
}
