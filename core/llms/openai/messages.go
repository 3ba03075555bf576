package openai

import (
	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-callbot/core/llms"
)

type openAIMessage struct {
	Type messageType `json:"type"`

	Role    messageRole `json:"role,omitempty"`
	Content string      `json:"content,omitempty"`

	ToolCallID        string `json:"call_id,omitempty"`
	ToolCallName      string `json:"name,omitempty"`
	ToolCallArguments string `json:"arguments,omitempty"`
	ToolCallOutput    string `json:"output,omitempty"`
	ToolCallStatus    string `json:"status,omitempty"`
}

type messageRole string

const (
	messageRoleDeveloper messageRole = "developer"
	messageRoleUser      messageRole = "user"
	messageRoleAssistant messageRole = "assistant"
)

type messageType string

const (
	messageTypeMessage            messageType = "message"
	messageTypeFunctionCall       messageType = "function_call"
	messageTypeFunctionCallOutput messageType = "function_call_output"
)

// openAITool is the flattened function tool shape of the Responses API.
type openAITool struct {
	Type        string             `json:"type"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

func toOpenAITools(tools []llms.Tool) []openAITool {
	converted := make([]openAITool, 0, len(tools))
	for _, tool := range tools {
		converted = append(converted, openAITool{
			Type:        "function",
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			Parameters:  tool.Function.Parameters,
		})
	}
	return converted
}

func toOpenAIMessages(instructions string, history []llms.Message) []openAIMessage {
	messages := []openAIMessage{}
	if instructions != "" {
		messages = append(messages, openAIMessage{
			Role:    messageRoleDeveloper,
			Type:    messageTypeMessage,
			Content: instructions,
		})
	}

	for _, msg := range history {
		switch msg.Role {
		case llms.MessageRoleUser:
			messages = append(messages, openAIMessage{
				Type:    messageTypeMessage,
				Role:    messageRoleUser,
				Content: msg.Content,
			})
		case llms.MessageRoleAssistant:
			if msg.Content != "" {
				messages = append(messages, openAIMessage{
					Type:    messageTypeMessage,
					Role:    messageRoleAssistant,
					Content: msg.Content,
				})
			}
			for _, toolCall := range msg.ToolCalls {
				messages = append(messages, openAIMessage{
					Type:              messageTypeFunctionCall,
					ToolCallID:        toolCall.ID,
					ToolCallName:      toolCall.Name,
					ToolCallArguments: toolCall.Arguments,
					ToolCallStatus:    "completed",
				})
			}
		case llms.MessageRoleTool:
			messages = append(messages, openAIMessage{
				Type:           messageTypeFunctionCallOutput,
				ToolCallID:     msg.ToolCallID,
				ToolCallOutput: msg.Content,
			})
		}
	}
	return messages
}
