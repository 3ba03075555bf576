package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koscakluka/ema-callbot/core/llms"
)

type weatherArgs struct {
	City string `json:"city"`
}

func TestPromptSendsHistoryToolsAndParsesToolCalls(t *testing.T) {
	var got requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_1","type":"function","function":{"name":"weather","arguments":"{\"city\":\"Pune\"}"}}]},"finish_reason":"tool_calls"}]}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", WithURL(server.URL), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := client.Prompt(context.Background(), "what's the weather?",
		llms.WithSystemPrompt("be brief"),
		llms.WithHistory(llms.NewUserMessage("hi"), llms.NewAssistantMessage("hello")),
		llms.WithTools(llms.NewTool[weatherArgs]("weather", "Look up the weather")),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Role != messageRoleSystem || got.Messages[0].Content != "be brief" {
		t.Fatalf("expected system message first, got %+v", got.Messages[0])
	}
	if got.Messages[3].Role != messageRoleUser || got.Messages[3].Content != "what's the weather?" {
		t.Fatalf("expected prompt last, got %+v", got.Messages[3])
	}
	if len(got.Tools) != 1 || got.Tools[0].Function.Name != "weather" {
		t.Fatalf("expected weather tool, got %+v", got.Tools)
	}
	if got.ToolChoice == nil || *got.ToolChoice != "auto" {
		t.Fatalf("expected auto tool choice, got %v", got.ToolChoice)
	}

	if !resp.HasToolCalls() {
		t.Fatal("expected tool calls in response")
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "weather" || call.Arguments != `{"city":"Pune"}` {
		t.Fatalf("unexpected tool call: %+v", call)
	}
}

func TestPromptWithEmptyPromptContinuesFromToolResults(t *testing.T) {
	var got requestBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"It is sunny."}}]}`))
	}))
	defer server.Close()

	client, _ := NewClient("k", WithURL(server.URL))
	call := llms.ToolCall{ID: "call_1", Name: "weather", Arguments: `{}`}
	resp, err := client.Prompt(context.Background(), "",
		llms.WithHistory(
			llms.NewUserMessage("weather?"),
			llms.NewAssistantMessage("", call),
			llms.NewToolMessage(call, `{"sky":"clear"}`),
		),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "It is sunny." {
		t.Fatalf("expected content, got %q", resp.Content)
	}

	if len(got.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got.Messages))
	}
	last := got.Messages[2]
	if last.Role != messageRoleTool || last.ToolCallID != "call_1" {
		t.Fatalf("expected tool message last, got %+v", last)
	}
	if len(got.Messages[1].ToolCalls) != 1 {
		t.Fatalf("expected assistant tool call to be forwarded, got %+v", got.Messages[1])
	}
	if got.Tools != nil || got.ToolChoice != nil {
		t.Fatalf("expected no tools, got %+v %v", got.Tools, got.ToolChoice)
	}
}

func TestPromptFailsOnNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := NewClient("k", WithURL(server.URL))
	if _, err := client.Prompt(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on non-OK status")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
