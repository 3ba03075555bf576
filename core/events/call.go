package events

const (
	// KindCallStarted identifies the start of a media stream.
	KindCallStarted Kind = "call.started"
	// KindCallGreetingSent identifies the one-time greeting.
	KindCallGreetingSent Kind = "call.greeting_sent"
	// KindCallEnded identifies session teardown.
	KindCallEnded Kind = "call.ended"
)

// CallStarted marks the start of a media stream.
type CallStarted struct {
	Base
	StreamID string
}

// NewCallStarted creates a call started event.
func NewCallStarted(callID, streamID string) CallStarted {
	return CallStarted{Base: NewBase(KindCallStarted, callID), StreamID: streamID}
}

// CallGreetingSent marks the greeting as sent.
type CallGreetingSent struct {
	Base
	Text string
}

// NewCallGreetingSent creates a greeting sent event.
func NewCallGreetingSent(callID, text string) CallGreetingSent {
	return CallGreetingSent{Base: NewBase(KindCallGreetingSent, callID), Text: text}
}

type EndReason string

const (
	EndReasonStopped      EndReason = "stopped"
	EndReasonConversation EndReason = "conversation_ended"
	EndReasonDisconnected EndReason = "disconnected"
	EndReasonCancelled    EndReason = "cancelled"
)

// CallEnded marks session teardown.
type CallEnded struct {
	Base
	Reason    EndReason
	UserTurns int
}

// NewCallEnded creates a call ended event.
func NewCallEnded(callID string, reason EndReason, userTurns int) CallEnded {
	return CallEnded{Base: NewBase(KindCallEnded, callID), Reason: reason, UserTurns: userTurns}
}
