package groq

import (
	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-callbot/core/llms"
)

type message struct {
	Role       messageRole `json:"role"`
	Content    string      `json:"content"`
	Name       string      `json:"name,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []toolCall  `json:"tool_calls,omitempty"`
}

type messageRole string

const (
	messageRoleSystem    messageRole = "system"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
	messageRoleTool      messageRole = "tool"
)

type toolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool mirrors llms.Tool field by field so it can be filled with copier.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

func toMessages(instructions string, history []llms.Message, prompt string) []message {
	messages := []message{}
	if instructions != "" {
		messages = append(messages, message{
			Role:    messageRoleSystem,
			Content: instructions,
		})
	}

	for _, msg := range history {
		switch msg.Role {
		case llms.MessageRoleSystem:
			// Instructions are always sent fresh, stale ones are skipped.
		case llms.MessageRoleUser:
			messages = append(messages, message{Role: messageRoleUser, Content: msg.Content})
		case llms.MessageRoleAssistant:
			converted := message{Role: messageRoleAssistant, Content: msg.Content}
			for _, tCall := range msg.ToolCalls {
				converted.ToolCalls = append(converted.ToolCalls, toolCall{
					ID:   tCall.ID,
					Type: "function",
					Function: toolCallFunction{
						Name:      tCall.Name,
						Arguments: tCall.Arguments,
					},
				})
			}
			messages = append(messages, converted)
		case llms.MessageRoleTool:
			messages = append(messages, message{
				Role:       messageRoleTool,
				Content:    msg.Content,
				Name:       msg.Name,
				ToolCallID: msg.ToolCallID,
			})
		}
	}

	if prompt != "" {
		messages = append(messages, message{
			Role:    messageRoleUser,
			Content: prompt,
		})
	}
	return messages
}

func fromToolCalls(calls []toolCall) []llms.ToolCall {
	var converted []llms.ToolCall
	for _, call := range calls {
		converted = append(converted, llms.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return converted
}
