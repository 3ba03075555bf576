// Package tools implements the lookups the model may call mid-turn. Every
// tool is a pure function over the knowledge base.
package tools

import (
	"fmt"

	"github.com/koscakluka/ema-callbot/core/llms"
)

type Kind int

const (
	KindCompanyInfo Kind = iota + 1
	KindMatchService
	KindObjectionResponse
	KindScheduleNextStep
)

var kinds = []Kind{KindCompanyInfo, KindMatchService, KindObjectionResponse, KindScheduleNextStep}

func (k Kind) String() string {
	switch k {
	case KindCompanyInfo:
		return "get_company_info"
	case KindMatchService:
		return "match_service_to_need"
	case KindObjectionResponse:
		return "get_objection_response"
	case KindScheduleNextStep:
		return "schedule_next_step"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind validates a tool name coming from the model.
func ParseKind(name string) (Kind, error) {
	for _, kind := range kinds {
		if kind.String() == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownTool, name)
}

type CompanyInfoArgs struct{}

type MatchServiceArgs struct {
	CustomerNeed string `json:"customer_need" jsonschema_description:"Description of the customer's pain point or need (e.g., 'AI deployment issues', 'data quality problems')"`
}

type ObjectionResponseArgs struct {
	ObjectionType string `json:"objection_type" jsonschema_description:"Type of objection (e.g., 'cost', 'timing', 'internal_team', 'need_info', 'competitor')"`
}

type ScheduleAction string

const (
	ActionScheduleCall  ScheduleAction = "schedule_call"
	ActionSendInfo      ScheduleAction = "send_info"
	ActionCallback      ScheduleAction = "callback"
	ActionNotInterested ScheduleAction = "not_interested"
)

type ScheduleNextStepArgs struct {
	Action        ScheduleAction `json:"action" jsonschema:"enum=schedule_call,enum=send_info,enum=callback,enum=not_interested" jsonschema_description:"Type of next step to take"`
	CustomerEmail string         `json:"customer_email,omitempty" jsonschema_description:"Customer's email address if sending information (optional)"`
}

// Definitions returns the tool declarations offered to the model.
func Definitions() []llms.Tool {
	return []llms.Tool{
		llms.NewTool[CompanyInfoArgs](KindCompanyInfo.String(),
			"Get information about CoffeeBeans company, services, and capabilities. Use this when customer asks about the company or what CoffeeBeans does."),
		llms.NewTool[MatchServiceArgs](KindMatchService.String(),
			"Match customer's pain point or business need to the most relevant CoffeeBeans service. Use this when customer mentions challenges, problems, or technology needs."),
		llms.NewTool[ObjectionResponseArgs](KindObjectionResponse.String(),
			"Get a framework for handling customer objections professionally. Use when customer raises concerns about cost, timing, having internal team, etc."),
		llms.NewTool[ScheduleNextStepArgs](KindScheduleNextStep.String(),
			"Handle scheduling or next steps with the customer to close the conversation. Use when customer is ready to move forward or wants more information."),
	}
}
