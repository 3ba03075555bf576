package llms

import (
	"encoding/json"
	"strings"
	"testing"
)

type lookupArgs struct {
	City string `json:"city" jsonschema:"description=City to look up"`
}

func TestNewToolReflectsInlineObjectSchema(t *testing.T) {
	tool := NewTool[lookupArgs]("lookup_weather", "Look up weather")

	if tool.Type != "function" || tool.Function.Name != "lookup_weather" {
		t.Fatalf("unexpected tool declaration: %+v", tool)
	}

	raw, err := json.Marshal(tool)
	if err != nil {
		t.Fatalf("expected tool to marshal, got %v", err)
	}
	encoded := string(raw)

	if strings.Contains(encoded, "$ref") || strings.Contains(encoded, "$schema") {
		t.Fatalf("expected a self-contained schema, got %s", encoded)
	}
	if !strings.Contains(encoded, `"city"`) || !strings.Contains(encoded, "City to look up") {
		t.Fatalf("expected city property in schema, got %s", encoded)
	}
	if !strings.Contains(encoded, `"type":"object"`) {
		t.Fatalf("expected object parameters, got %s", encoded)
	}
}

func TestTrimHistoryKeepsTrailingWindow(t *testing.T) {
	history := []Message{
		NewUserMessage("1"),
		NewAssistantMessage("2"),
		NewUserMessage("3"),
		NewAssistantMessage("4"),
	}

	got := TrimHistory(history, 2)
	if len(got) != 2 || got[0].Content != "3" || got[1].Content != "4" {
		t.Fatalf("unexpected window %+v", got)
	}

	if got := TrimHistory(history, 0); len(got) != 4 {
		t.Fatalf("expected no trimming without a limit, got %d messages", len(got))
	}
}

func TestTrimHistoryDropsOrphanedToolResults(t *testing.T) {
	call := ToolCall{ID: "call_1", Name: "get_company_info"}
	history := []Message{
		NewUserMessage("who are you"),
		NewAssistantMessage("", call),
		NewToolMessage(call, `{"company":"x"}`),
		NewAssistantMessage("We are x."),
	}

	got := TrimHistory(history, 2)
	if len(got) != 1 || got[0].Content != "We are x." {
		t.Fatalf("expected orphaned tool result to be dropped, got %+v", got)
	}
}
