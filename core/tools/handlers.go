package tools

import (
	"errors"
	"strings"

	"github.com/koscakluka/ema-callbot/core/knowledge"
)

type companyInfoResult struct {
	Company          knowledge.CompanyInfo `json:"company"`
	ServicesOverview map[string]string     `json:"services_overview"`
	ElevatorPitch    string                `json:"elevator_pitch"`
}

func companyInfo(kb *knowledge.Base) companyInfoResult {
	overview := map[string]string{}
	for _, service := range kb.Services() {
		overview[service.Key] = service.Name
	}
	return companyInfoResult{
		Company:          kb.CompanyInfo(),
		ServicesOverview: overview,
		ElevatorPitch:    kb.ElevatorPitch(false),
	}
}

type matchServiceResult struct {
	MatchedService string                `json:"matched_service"`
	ServiceName    string                `json:"service_name"`
	Description    string                `json:"description"`
	Benefits       []string              `json:"benefits"`
	CaseStudies    []knowledge.CaseStudy `json:"case_studies"`
}

func matchService(kb *knowledge.Base, args MatchServiceArgs) matchServiceResult {
	key := kb.MatchServiceToPainPoint(args.CustomerNeed)
	points, _ := kb.ServiceTalkingPoints(key)
	return matchServiceResult{
		MatchedService: key,
		ServiceName:    points.Name,
		Description:    points.Description,
		Benefits:       points.KeyBenefits[:min(3, len(points.KeyBenefits))],
		CaseStudies:    points.RelevantCases[:min(1, len(points.RelevantCases))],
	}
}

// objectionAliases is checked in order; the first alias contained in the
// requested type wins.
var objectionAliases = []struct {
	alias     string
	objection knowledge.Objection
}{
	{"cost", knowledge.ObjectionTooExpensive},
	{"budget", knowledge.ObjectionTooExpensive},
	{"expensive", knowledge.ObjectionTooExpensive},
	{"timing", knowledge.ObjectionNotRightTime},
	{"later", knowledge.ObjectionNotRightTime},
	{"internal", knowledge.ObjectionHaveInternalTeam},
	{"team", knowledge.ObjectionHaveInternalTeam},
	{"think", knowledge.ObjectionNeedToThink},
	{"consider", knowledge.ObjectionNeedToThink},
	{"competitor", knowledge.ObjectionWorkingWithCompetitor},
	{"vendor", knowledge.ObjectionWorkingWithCompetitor},
}

func resolveObjection(objectionType string) knowledge.Objection {
	objectionType = strings.ToLower(objectionType)
	for _, entry := range objectionAliases {
		if strings.Contains(objectionType, entry.alias) {
			return entry.objection
		}
	}
	return knowledge.ObjectionNeedToThink
}

type objectionResponseResult struct {
	ResponseFramework string   `json:"response_framework"`
	KeyPoints         []string `json:"key_points"`
}

func objectionResponse(kb *knowledge.Base, args ObjectionResponseArgs) objectionResponseResult {
	response, _ := kb.ObjectionResponse(resolveObjection(args.ObjectionType))
	keyPoints := response.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	return objectionResponseResult{
		ResponseFramework: response.Response,
		KeyPoints:         keyPoints,
	}
}

type scheduleNextStepResult struct {
	Action  ScheduleAction `json:"action"`
	Message string         `json:"message"`
}

// scheduleNextStep reports whether the call should end after this step.
// Only not_interested ends it; other unknown actions get the closing line
// but the conversation goes on.
func scheduleNextStep(args ScheduleNextStepArgs) (scheduleNextStepResult, bool, error) {
	if args.Action == "" {
		return scheduleNextStepResult{}, false, errors.New("action is required")
	}

	result := scheduleNextStepResult{Action: args.Action}
	switch args.Action {
	case ActionScheduleCall:
		result.Message = "Great! I'll have our team reach out to schedule a discovery call."
	case ActionSendInfo:
		email := args.CustomerEmail
		if email == "" {
			email = "your email"
		}
		result.Message = "Perfect! I'll send information to " + email + "."
	case ActionCallback:
		result.Message = "No problem! When would be a good time to reach back out?"
	default:
		result.Message = "I understand. Thanks for your time. Feel free to reach out if things change."
	}
	return result, args.Action == ActionNotInterested, nil
}
