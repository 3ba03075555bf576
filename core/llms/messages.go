package llms

// Message is a single entry of the chat history exchanged with an LLM.
type Message struct {
	Role    MessageRole
	Content string

	// ToolCalls are set on assistant messages that requested tool execution.
	ToolCalls []ToolCall
	// ToolCallID is set on tool messages and points back at the call the
	// message is the result of.
	ToolCallID string
	// Name is the tool name on tool messages.
	Name string
}

// Response is a single response from an LLM
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model asked for tools instead of (or in
// addition to) answering.
func (r *Response) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

func NewUserMessage(content string) Message {
	return Message{Role: MessageRoleUser, Content: content}
}

func NewAssistantMessage(content string, toolCalls ...ToolCall) Message {
	return Message{Role: MessageRoleAssistant, Content: content, ToolCalls: toolCalls}
}

func NewToolMessage(call ToolCall, result string) Message {
	return Message{Role: MessageRoleTool, Content: result, ToolCallID: call.ID, Name: call.Name}
}

// TrimHistory returns the trailing window of at most limit messages. A
// window never starts with tool results whose originating assistant message
// was cut off, since backends reject orphaned tool messages.
func TrimHistory(history []Message, limit int) []Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}

	window := history[len(history)-limit:]
	for len(window) > 0 && window[0].Role == MessageRoleTool {
		window = window[1:]
	}
	return window
}
