// Package accumulator folds normalized stream events into per-block merge
// state and emits incremental deltas, producing finished messages once a
// terminal event arrives. It is dialect-agnostic: every provider quirk has
// already been flattened into the llm.RawEvent set by the time events get
// here.
package accumulator

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/papercomputeco/spool/pkg/llm"
)

// Accumulator owns the merge state for one logical response. It is a pure
// reducer driven by Apply; it spawns no goroutines and must not be shared
// across concurrent responses.
type Accumulator struct {
	states map[int]*mergeState
	sink   Sink
	usage  llm.Usage
	model  string
}

// New creates an Accumulator. Deltas are pushed into sink as they are
// produced; a nil sink collects terminally via Messages only.
func New(sink Sink) *Accumulator {
	return &Accumulator{
		states: make(map[int]*mergeState),
		sink:   sink,
	}
}

// mergeState is the running reduction of all deltas seen for one block.
type mergeState struct {
	index      int
	role       llm.Role
	content    strings.Builder
	funcName   string
	args       strings.Builder
	parsedArgs map[string]any
	status     llm.Status
	stopReason string

	// sawBody flips once the first content fragment beyond the seed has
	// been emitted; later fragments carry RoleUnknown, mirroring providers
	// that name the role only once at block start.
	sawBody bool
}

// Apply folds one normalized event into the state table and returns the
// deltas it produced, in order. Events for blocks already in a terminal
// status are protocol violations, as is a terminal transition whose
// accumulated argument text does not parse as JSON.
func (a *Accumulator) Apply(ev llm.RawEvent) ([]llm.Delta, error) {
	if ev.Model != "" {
		a.model = ev.Model
	}

	switch ev.Kind {
	case llm.KindIgnorable:
		return nil, nil

	case llm.KindError:
		// Does not touch any merge state: the whole response failed.
		return nil, &llm.UpstreamError{Message: ev.Err, Type: ev.ErrType}

	case llm.KindBlockStart:
		return a.applyBlockStart(ev)

	case llm.KindTextDelta:
		return a.applyTextDelta(ev)

	case llm.KindFunctionCallStart:
		return a.applyFunctionCallStart(ev)

	case llm.KindFunctionCallArgsDelta:
		return a.applyArgsDelta(ev)

	case llm.KindBlockStop:
		// No status change by itself: some dialects stop a block well
		// before the stream is done. Still a violation after terminal.
		_, err := a.active(indexOf(ev.Index))
		return nil, err

	case llm.KindStreamDone:
		return a.applyStreamDone(ev)

	case llm.KindFullMessage:
		return a.applyFullMessage(ev)
	}

	return nil, nil
}

func (a *Accumulator) applyBlockStart(ev llm.RawEvent) ([]llm.Delta, error) {
	st, err := a.active(indexOf(ev.Index))
	if err != nil {
		return nil, err
	}

	if ev.Role != "" && ev.Role != llm.RoleUnknown {
		st.role = ev.Role
	}
	st.content.WriteString(ev.Text)
	a.usage.Merge(ev.Usage)

	seed := ev.Text
	return a.emit(llm.Delta{
		Index:   st.index,
		Role:    st.role,
		Content: &seed,
		Status:  st.status,
	}), nil
}

func (a *Accumulator) applyTextDelta(ev llm.RawEvent) ([]llm.Delta, error) {
	st, err := a.active(indexOf(ev.Index))
	if err != nil {
		return nil, err
	}

	st.content.WriteString(ev.Text)

	role := llm.RoleUnknown
	if !st.sawBody {
		role = st.role
		st.sawBody = true
	}

	text := ev.Text
	return a.emit(llm.Delta{
		Index:   st.index,
		Role:    role,
		Content: &text,
		Status:  st.status,
	}), nil
}

func (a *Accumulator) applyFunctionCallStart(ev llm.RawEvent) ([]llm.Delta, error) {
	st, err := a.active(indexOf(ev.Index))
	if err != nil {
		return nil, err
	}

	// First non-empty name wins and is frozen.
	if st.funcName == "" {
		st.funcName = ev.Name
	}

	name := st.funcName
	empty := ""
	return a.emit(llm.Delta{
		Index:        st.index,
		Role:         st.role,
		FunctionName: &name,
		Arguments:    &empty,
		Status:       st.status,
	}), nil
}

func (a *Accumulator) applyArgsDelta(ev llm.RawEvent) ([]llm.Delta, error) {
	st, err := a.active(indexOf(ev.Index))
	if err != nil {
		return nil, err
	}

	// Verbatim, untrimmed: fragments may carry whitespace that matters
	// once concatenated.
	st.args.WriteString(ev.Args)

	args := ev.Args
	return a.emit(llm.Delta{
		Index:     st.index,
		Role:      llm.RoleUnknown,
		Arguments: &args,
		Status:    st.status,
	}), nil
}

func (a *Accumulator) applyStreamDone(ev llm.RawEvent) ([]llm.Delta, error) {
	a.usage.Merge(ev.Usage)

	// Index-scoped done finalizes one block; message-scoped done (nil
	// index) finalizes every active block. A message-scoped done with
	// nothing active — e.g. a "[DONE]" sentinel after per-choice finishes
	// — is a no-op, not a violation.
	if ev.Index != nil {
		st, err := a.active(*ev.Index)
		if err != nil {
			return nil, err
		}
		d, err := a.finalize(st, ev.StopReason)
		if err != nil {
			return nil, err
		}
		return a.emit(d), nil
	}

	var deltas []llm.Delta
	for _, idx := range a.indexes() {
		st := a.states[idx]
		if st.status.Terminal() {
			continue
		}
		d, err := a.finalize(st, ev.StopReason)
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, a.emit(d)...)
	}
	return deltas, nil
}

func (a *Accumulator) applyFullMessage(ev llm.RawEvent) ([]llm.Delta, error) {
	if ev.Full == nil {
		return nil, &llm.ProtocolViolationError{Index: indexOf(ev.Index), Reason: "full message without payload"}
	}

	st, err := a.active(indexOf(ev.Index))
	if err != nil {
		return nil, err
	}

	// Single-step reduction: the whole message lands in one merge.
	if ev.Full.Role != "" && ev.Full.Role != llm.RoleUnknown {
		st.role = ev.Full.Role
	}
	st.content.WriteString(ev.Full.Content)
	st.funcName = ev.Full.FunctionName
	st.args.WriteString(ev.Full.Arguments)
	a.usage.Merge(ev.Full.Usage)

	if _, err := a.finalize(st, ev.Full.StopReason); err != nil {
		return nil, err
	}

	// One terminal delta carrying everything, bypassing partial emission.
	content := ev.Full.Content
	d := llm.Delta{
		Index:   st.index,
		Role:    st.role,
		Content: &content,
		Status:  st.status,
	}
	if st.funcName != "" {
		name := st.funcName
		args := ev.Full.Arguments
		d.FunctionName = &name
		d.Arguments = &args
	}
	return a.emit(d), nil
}

// finalize parses accumulated argument text and transitions the block to
// its terminal status. Argument text is parsed here and nowhere earlier:
// intermediate fragments are not valid documents on their own.
func (a *Accumulator) finalize(st *mergeState, stopReason string) (llm.Delta, error) {
	if st.args.Len() > 0 {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(st.args.String()), &parsed); err != nil {
			return llm.Delta{}, &llm.ProtocolViolationError{
				Index:  st.index,
				Reason: "accumulated function arguments are not valid JSON",
			}
		}
		st.parsedArgs = parsed
	}

	st.status = llm.StatusForStopReason(stopReason)
	st.stopReason = stopReason

	return llm.Delta{
		Index:  st.index,
		Role:   st.role,
		Status: st.status,
	}, nil
}

// Cancel finalizes every active block with status cancelled and returns the
// terminal deltas. Accumulated argument text is left raw: an abandoned
// stream legitimately holds a partial JSON fragment.
func (a *Accumulator) Cancel() []llm.Delta {
	var deltas []llm.Delta
	for _, idx := range a.indexes() {
		st := a.states[idx]
		if st.status.Terminal() {
			continue
		}
		st.status = llm.StatusCancelled
		deltas = append(deltas, a.emit(llm.Delta{
			Index:  st.index,
			Role:   st.role,
			Status: llm.StatusCancelled,
		})...)
	}
	return deltas
}

// Messages returns the finished message per block, ordered by index.
// Blocks that never reached a terminal status are reported as they stand,
// with StatusIncomplete.
func (a *Accumulator) Messages() []llm.Message {
	msgs := make([]llm.Message, 0, len(a.states))
	for _, idx := range a.indexes() {
		st := a.states[idx]
		msgs = append(msgs, llm.Message{
			Index:        st.index,
			Role:         st.role,
			Content:      st.content.String(),
			FunctionName: st.funcName,
			Arguments:    st.args.String(),
			FunctionArgs: st.parsedArgs,
			Status:       st.status,
			StopReason:   st.stopReason,
			Model:        a.model,
		})
	}
	return msgs
}

// Usage returns the merged usage metrics seen so far.
func (a *Accumulator) Usage() llm.Usage {
	return a.usage
}

// Done reports whether at least one block exists and all blocks are
// terminal.
func (a *Accumulator) Done() bool {
	if len(a.states) == 0 {
		return false
	}
	for _, st := range a.states {
		if !st.status.Terminal() {
			return false
		}
	}
	return true
}

// active returns the merge state for idx, synthesizing one on first
// encounter (providers may deliver a choice's first event without an
// explicit block start). Terminal states are absorbing: any further event
// for the block is a protocol violation.
func (a *Accumulator) active(idx int) (*mergeState, error) {
	st, ok := a.states[idx]
	if !ok {
		st = &mergeState{
			index:  idx,
			role:   llm.RoleAssistant,
			status: llm.StatusIncomplete,
		}
		a.states[idx] = st
		return st, nil
	}

	if st.status.Terminal() {
		return nil, &llm.ProtocolViolationError{
			Index:  idx,
			Reason: "event after terminal status " + string(st.status),
		}
	}
	return st, nil
}

// indexes returns the known block indexes in ascending order.
func (a *Accumulator) indexes() []int {
	idxs := make([]int, 0, len(a.states))
	for idx := range a.states {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	return idxs
}

// emit pushes a delta into the sink, if any, and returns it as a slice for
// convenient aggregation.
func (a *Accumulator) emit(d llm.Delta) []llm.Delta {
	if a.sink != nil {
		a.sink.Emit(d)
	}
	return []llm.Delta{d}
}

func indexOf(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
