package orchestration

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/koscakluka/ema-callbot/core/conversations"
	"github.com/koscakluka/ema-callbot/core/knowledge"
)

const (
	DefaultGreeting = "Hi! This is an AI assistant calling from CoffeeBeans Consulting. " +
		"We specialize in helping companies with AI, data engineering, and digital transformation. " +
		"Do you have a couple of minutes to chat about your technology initiatives?"

	DefaultFallbackReply = "I apologize, I'm having trouble processing that. Could you repeat?"
)

var instructionsTemplate = template.Must(template.New("instructions").Parse(
	`You are a professional sales agent calling on behalf of {{.Company.Name}}.

AVAILABLE TOOLS:
1. get_company_info() - Get {{.ShortName}} company details and services
2. match_service_to_need(customer_need) - Match customer needs to our services
3. get_objection_response(objection_type) - Handle customer objections
4. schedule_next_step(action, email) - Close with next steps

YOUR ROLE:
- Have natural business conversations about {{.ShortName}} services
- When customer mentions a problem/need, use match_service_to_need() to get relevant info
- When customer raises objection, use get_objection_response() to handle it
- When ready to close, use schedule_next_step() to wrap up

CONVERSATION APPROACH:
1. OPENING: Introduce yourself from {{.ShortName}}, ask if they have a few minutes
2. DISCOVERY: When they share challenges, use tools to get relevant service info
3. PRESENTATION: Present {{.ShortName}} solutions naturally (don't be pushy)
4. OBJECTIONS: Use objection handling tool when concerns arise
5. CLOSING: Use scheduling tool for next steps

CRITICAL RULES:
- You are SELLING {{.ShortName}} services, not providing free consulting
- When customer describes a problem, connect it to what {{.ShortName}} offers
- Use tools proactively when customer signals interest or objections
- Be consultative but remember you're here to secure next steps
- Keep responses concise (2-3 sentences max)
- You are speaking on a phone call: no lists, markdown or emojis

{{.ShortName}} Quick Facts:
- Founded {{.Company.Founded}}, {{.Company.TeamSize}}
- Services: {{.Services}}
- Clients: The Quint, Ola, Salam Kisan
- Philosophy: "Beyond Features, We Deliver Value"

CALL STATE:
- Phase: {{.State.Phase}}
- Customer sentiment: {{.State.Sentiment}}
- Engagement: {{.State.Engagement}}
{{- with .Interests}}
- Interests so far: {{.}}{{end}}
{{- with .Objections}}
- Objections raised: {{.}}{{end}}
{{- with .ServicesDiscussed}}
- Services already discussed: {{.}}{{end}}
{{- with .Questions}}

DISCOVERY QUESTIONS (ask one at a time, only when it fits):
{{- range .}}
- {{.}}{{end}}{{end}}
{{- with .State.LastToolResult}}

LATEST TOOL RESULT ({{.Name}}):
{{.Output}}{{end}}

Now continue the conversation naturally. Use tools when appropriate.`))

type instructionsData struct {
	Company   knowledge.CompanyInfo
	ShortName string
	Services  string
	State     *conversations.State

	Interests         string
	Objections        string
	ServicesDiscussed string
	// Questions is empty once the caller has shown an interest.
	Questions []string
}

// buildInstructions renders the system instruction for the next model call
// from the persona, the tracked call state and the latest tool result.
func buildInstructions(kb *knowledge.Base, state *conversations.State) (string, error) {
	data := instructionsData{
		ShortName:         "CoffeeBeans",
		Services:          "AI, Blockchain, Big Data, Technology Advisory",
		State:             state,
		Interests:         strings.Join(state.Interests.Sorted(), ", "),
		Objections:        strings.Join(state.Objections.Sorted(), ", "),
		ServicesDiscussed: strings.Join(state.ServicesDiscussed.Sorted(), ", "),
	}
	if kb != nil {
		data.Company = kb.CompanyInfo()
		data.ShortName = strings.Fields(data.Company.Name)[0]

		names := []string{}
		for _, service := range kb.Services() {
			names = append(names, service.Name)
		}
		data.Services = strings.Join(names, ", ")

		if state.Interests.Len() == 0 {
			for _, group := range kb.QualifyingQuestions() {
				data.Questions = append(data.Questions, group.Category+": "+strings.Join(group.Questions, " "))
			}
		}
	} else {
		data.Company = knowledge.CompanyInfo{Name: "CoffeeBeans Consulting", Founded: "2017", TeamSize: "168 employees"}
	}

	var instructions strings.Builder
	if err := instructionsTemplate.Execute(&instructions, data); err != nil {
		return "", fmt.Errorf("failed to render instructions: %w", err)
	}
	return instructions.String(), nil
}
