package events

// KindAssistantResponseFinalized identifies the reply sent to the caller.
const KindAssistantResponseFinalized Kind = "assistant_response.finalized"

// AssistantResponseFinalized carries the reply text and the size of the
// synthesized audio.
type AssistantResponseFinalized struct {
	Base
	Text       string
	AudioBytes int
}

// NewAssistantResponseFinalized creates an assistant response finalized event.
func NewAssistantResponseFinalized(callID, text string, audioBytes int) AssistantResponseFinalized {
	return AssistantResponseFinalized{
		Base:       NewBase(KindAssistantResponseFinalized, callID),
		Text:       text,
		AudioBytes: audioBytes,
	}
}
