// Package decoder composes the decode pipeline for one response:
// raw stream → frame splitter → dialect normalizer → delta accumulator.
// The caller drives a Session by feeding newly-received chunks as they
// arrive from the transport; nothing here blocks or spawns goroutines.
package decoder

import (
	"io"
	"log/slog"

	"github.com/papercomputeco/spool/pkg/accumulator"
	"github.com/papercomputeco/spool/pkg/llm"
	"github.com/papercomputeco/spool/pkg/llm/dialect"
	"github.com/papercomputeco/spool/pkg/logger"
	"github.com/papercomputeco/spool/pkg/sse"
)

// Session decodes one streamed response. Each concurrent response gets its
// own Session; sessions share no mutable state.
type Session struct {
	splitter *sse.Splitter
	dialect  dialect.Dialect
	acc      *accumulator.Accumulator
	logger   *slog.Logger
	failed   bool
}

// Option configures a Session.
type Option func(*Session)

// WithSink delivers every emitted delta to sink as it is produced.
func WithSink(sink accumulator.Sink) Option {
	return func(s *Session) {
		s.acc = accumulator.New(sink)
	}
}

// WithLogger overrides the session logger (default: discard).
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// NewSession creates a Session for the given dialect.
func NewSession(d dialect.Dialect, opts ...Option) *Session {
	s := &Session{
		splitter: sse.NewSplitter(),
		dialect:  d,
		acc:      accumulator.New(nil),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Feed consumes newly-received bytes and returns the deltas they unlocked,
// in order. A chunk may complete zero frames (the tail is retained for the
// next call) or several. The first error fails the session; later calls
// return ErrSessionFailed.
func (s *Session) Feed(chunk string) ([]llm.Delta, error) {
	if s.failed {
		return nil, ErrSessionFailed
	}

	var deltas []llm.Delta
	for _, frame := range s.splitter.Advance(chunk) {
		ev, ok := sse.ParseFrame(frame)
		if !ok {
			// Keep-alive blank or comment-only frame.
			continue
		}

		events, err := s.dialect.Normalize(ev)
		if err != nil {
			s.failed = true
			return deltas, err
		}

		for _, rawEv := range events {
			d, err := s.acc.Apply(rawEv)
			deltas = append(deltas, d...)
			if err != nil {
				s.failed = true
				return deltas, err
			}
			s.logger.Debug("applied event",
				"kind", rawEv.Kind.String(),
				"deltas", len(d),
			)
		}
	}

	return deltas, nil
}

// Rest returns the carry-over buffer: bytes received but not yet forming a
// complete frame. Non-empty rest after the transport closes means the
// stream ended mid-frame.
func (s *Session) Rest() string {
	return s.splitter.Rest()
}

// Done reports whether every block reached a terminal status.
func (s *Session) Done() bool {
	return s.acc.Done()
}

// Messages returns the finished messages accumulated so far, ordered by
// block index.
func (s *Session) Messages() []llm.Message {
	return s.acc.Messages()
}

// Usage returns the merged usage metrics reported by the stream.
func (s *Session) Usage() llm.Usage {
	return s.acc.Usage()
}

// Cancel finalizes all active blocks with status cancelled and returns the
// terminal deltas. Abandoning a session needs no other teardown: discard it
// and its buffer goes with it.
func (s *Session) Cancel() []llm.Delta {
	return s.acc.Cancel()
}

// DecodeResponse decodes one complete, non-streamed response body into
// finished messages, one per parallel choice, in choice order.
func DecodeResponse(d dialect.Dialect, body []byte) ([]llm.Message, error) {
	events, err := d.NormalizeResponse(body)
	if err != nil {
		return nil, err
	}

	acc := accumulator.New(nil)
	for _, ev := range events {
		if _, err := acc.Apply(ev); err != nil {
			return nil, err
		}
	}
	return acc.Messages(), nil
}

// DecodeStream reads an entire SSE stream from r and returns the finished
// messages. Deltas stream into sink as they are produced; pass nil to
// collect only the terminal result.
func DecodeStream(d dialect.Dialect, r io.Reader, sink accumulator.Sink) ([]llm.Message, error) {
	session := NewSession(d, WithSink(sink))

	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if _, ferr := session.Feed(string(buf[:n])); ferr != nil {
				return nil, ferr
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return session.Messages(), nil
}
