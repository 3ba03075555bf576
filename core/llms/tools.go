package llms

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool is the declaration of a callable function handed to the LLM. The
// shape follows the OpenAI-compatible chat completion format.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// NewTool declares a tool whose parameters are described by the JSON schema
// reflected from Args.
func NewTool[Args any](name, description string) Tool {
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  ParametersSchema[Args](),
		},
	}
}

func ParametersSchema[Args any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.ReflectFromType(reflect.TypeFor[Args]())
	schema.Version = ""
	schema.ID = ""
	return schema
}
