package llm

// Role identifies who produced a message or fragment.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
	RoleUnknown   Role = "unknown"
)

// ParseRole maps a provider role string onto the closed Role set.
// Provider-specific function/tool role spellings collapse to RoleTool.
func ParseRole(s string) Role {
	switch s {
	case "user":
		return RoleUser
	case "assistant":
		return RoleAssistant
	case "system":
		return RoleSystem
	case "tool", "function":
		return RoleTool
	}
	return RoleUnknown
}

// Status is the lifecycle state of one content block under accumulation.
// Terminal statuses are absorbing: once reached, further events for the
// block are protocol violations.
type Status string

const (
	StatusIncomplete      Status = "incomplete"
	StatusComplete        Status = "complete"
	StatusTruncatedLength Status = "truncated_length"
	StatusCancelled       Status = "cancelled"
)

// Terminal reports whether no further updates are valid for this status.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusTruncatedLength || s == StatusCancelled
}

// StatusForStopReason maps a provider stop reason onto a terminal status.
// Length exhaustion truncates; any other definite stop completes.
func StatusForStopReason(reason string) Status {
	switch reason {
	case "length", "max_tokens":
		return StatusTruncatedLength
	}
	return StatusComplete
}

// Delta is one incremental update emitted by the accumulator. Pointer
// fields are nil when the event produced no value for them, so a nil
// Content is distinguishable from an empty text fragment.
type Delta struct {
	// Index is the block/choice the update belongs to.
	Index int `json:"index"`

	// Role is the role carried by this update. Providers name the role
	// once, at block start; later fragments carry RoleUnknown.
	Role Role `json:"role"`

	// Content is the incremental text fragment, not the cumulative text.
	Content *string `json:"content,omitempty"`

	// FunctionName is set on the update that froze the name.
	FunctionName *string `json:"function_name,omitempty"`

	// Arguments is the raw argument-text fragment, verbatim.
	Arguments *string `json:"arguments,omitempty"`

	// Status after applying this update.
	Status Status `json:"status"`
}
