package events

const (
	// KindTurnCompleted identifies a turn that produced a reply.
	KindTurnCompleted Kind = "turn_state.completed"
	// KindTurnFailed identifies a turn that fell back to the apology reply.
	KindTurnFailed Kind = "turn_state.failed"
)

// TurnCompleted marks successful completion of a turn.
type TurnCompleted struct {
	Base
	ToolCalls int
	EndCall   bool
}

// NewTurnCompleted creates a turn completed event.
func NewTurnCompleted(callID string, toolCalls int, endCall bool) TurnCompleted {
	return TurnCompleted{Base: NewBase(KindTurnCompleted, callID), ToolCalls: toolCalls, EndCall: endCall}
}

// TurnFailed marks a failed turn.
type TurnFailed struct {
	Base
	Reason string
}

// NewTurnFailed creates a turn failed event.
func NewTurnFailed(callID, reason string) TurnFailed {
	return TurnFailed{Base: NewBase(KindTurnFailed, callID), Reason: reason}
}
