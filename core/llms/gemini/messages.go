package gemini

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-callbot/core/llms"
	"google.golang.org/genai"
)

func toContents(history []llms.Message) []*genai.Content {
	contents := []*genai.Content{}
	for _, msg := range history {
		switch msg.Role {
		case llms.MessageRoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))

		case llms.MessageRoleAssistant:
			parts := []*genai.Part{}
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				part := genai.NewPartFromFunctionCall(call.Name, decodeObject(call.Arguments, "arguments"))
				part.FunctionCall.ID = call.ID
				parts = append(parts, part)
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}

		case llms.MessageRoleTool:
			part := genai.NewPartFromFunctionResponse(msg.Name, decodeObject(msg.Content, "output"))
			part.FunctionResponse.ID = msg.ToolCallID
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}
	return contents
}

// decodeObject turns a JSON object into a map, wrapping anything else under
// fallbackKey.
func decodeObject(raw string, fallbackKey string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var object map[string]any
	if err := json.Unmarshal([]byte(raw), &object); err != nil || object == nil {
		return map[string]any{fallbackKey: raw}
	}
	return object
}

func fromResponse(resp *genai.GenerateContentResponse) *llms.Response {
	response := &llms.Response{}
	if resp == nil {
		return response
	}

	for _, call := range resp.FunctionCalls() {
		arguments, err := json.Marshal(call.Args)
		if err != nil || call.Args == nil {
			arguments = []byte("{}")
		}
		id := call.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		response.ToolCalls = append(response.ToolCalls, llms.ToolCall{
			ID:        id,
			Name:      call.Name,
			Arguments: string(arguments),
		})
	}
	response.Content = resp.Text()
	return response
}
