package accumulator

import "github.com/papercomputeco/spool/pkg/llm"

// Sink receives deltas as the accumulator produces them. Whether delivery
// is synchronous, queued, or fanned out to a goroutine is the caller's
// concern; the accumulator just pushes.
type Sink interface {
	Emit(d llm.Delta)
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(llm.Delta)

func (f SinkFunc) Emit(d llm.Delta) { f(d) }

// ChannelSink delivers deltas into a channel. The channel should be
// buffered or drained concurrently; Emit blocks while it is full.
type ChannelSink chan llm.Delta

func (c ChannelSink) Emit(d llm.Delta) { c <- d }
