package events

const (
	// KindToolCallCompleted identifies successful tool call completion.
	KindToolCallCompleted Kind = "tool_call.completed"
	// KindToolCallFailed identifies tool call failure.
	KindToolCallFailed Kind = "tool_call.failed"
)

// ToolCallCompleted marks successful tool execution.
type ToolCallCompleted struct {
	Base
	ID        string
	Name      string
	Arguments string
	Response  string
}

// NewToolCallCompleted creates a tool call completed event.
func NewToolCallCompleted(callID, id, name, arguments, response string) ToolCallCompleted {
	return ToolCallCompleted{
		Base:      NewBase(KindToolCallCompleted, callID),
		ID:        id,
		Name:      name,
		Arguments: arguments,
		Response:  response,
	}
}

// ToolCallFailed marks failed tool execution.
type ToolCallFailed struct {
	Base
	ID    string
	Name  string
	Error string
}

// NewToolCallFailed creates a tool call failed event.
func NewToolCallFailed(callID, id, name, err string) ToolCallFailed {
	return ToolCallFailed{Base: NewBase(KindToolCallFailed, callID), ID: id, Name: name, Error: err}
}
