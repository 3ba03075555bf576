// Package knowledge holds the static sales knowledge the voice agent draws
// on: company facts, service catalogue, case studies and objection handling.
//
// A Base is decoded once and never mutated afterwards, so a single instance
// can be shared by every call.
package knowledge

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed knowledge.toml
var defaultData []byte

// DefaultService is what unmatched needs fall back to.
const DefaultService = "artificial_intelligence"

// Objection identifies a canned objection response.
type Objection string

const (
	ObjectionTooExpensive          Objection = "too_expensive"
	ObjectionHaveInternalTeam      Objection = "have_internal_team"
	ObjectionNotRightTime          Objection = "not_right_time"
	ObjectionNeedToThink           Objection = "need_to_think"
	ObjectionWorkingWithCompetitor Objection = "working_with_competitor"
	ObjectionTooBusy               Objection = "too_busy"
)

type CompanyInfo struct {
	Name           string   `toml:"name" json:"name"`
	Tagline        string   `toml:"tagline" json:"tagline"`
	Founded        string   `toml:"founded" json:"founded"`
	Headquarters   string   `toml:"headquarters" json:"headquarters"`
	USPresence     string   `toml:"us_presence" json:"us_presence"`
	TeamSize       string   `toml:"team_size" json:"team_size"`
	Founders       []string `toml:"founders" json:"founders"`
	Mission        string   `toml:"mission" json:"mission"`
	Vision         string   `toml:"vision" json:"vision"`
	CorePhilosophy string   `toml:"core_philosophy" json:"core_philosophy"`
	Website        string   `toml:"website" json:"website"`
	EmailFormat    string   `toml:"email_format" json:"email_format"`
}

type Service struct {
	Key         string   `toml:"key" json:"key"`
	Name        string   `toml:"name" json:"name"`
	Tagline     string   `toml:"tagline" json:"tagline"`
	Description string   `toml:"description" json:"description"`
	Expertise   []string `toml:"expertise" json:"expertise"`
	PainPoints  []string `toml:"pain_points" json:"pain_points"`
	Outcomes    []string `toml:"outcomes" json:"outcomes"`
	Domains     []string `toml:"domains" json:"domains,omitempty"`
	KeyMessage  string   `toml:"key_message" json:"key_message,omitempty"`

	CaseStudyKeywords []string `toml:"case_study_keywords" json:"-"`
}

type CaseStudy struct {
	Client       string   `toml:"client" json:"client"`
	Industry     string   `toml:"industry" json:"industry"`
	Challenge    string   `toml:"challenge" json:"challenge"`
	Solution     string   `toml:"solution" json:"solution"`
	Outcome      string   `toml:"outcome" json:"outcome"`
	Technologies []string `toml:"technologies" json:"technologies,omitempty"`
	Impact       string   `toml:"impact" json:"impact,omitempty"`
	Testimonial  string   `toml:"testimonial" json:"testimonial,omitempty"`
	Focus        string   `toml:"focus" json:"focus,omitempty"`
}

func (c CaseStudy) text() string {
	fields := append([]string{
		c.Client, c.Industry, c.Challenge, c.Solution, c.Outcome,
		c.Impact, c.Testimonial, c.Focus,
	}, c.Technologies...)
	return strings.ToLower(strings.Join(fields, " "))
}

type ObjectionResponse struct {
	Response  string   `toml:"response" json:"response"`
	KeyPoints []string `toml:"key_points" json:"key_points"`
}

type ValuePropositions struct {
	MainDifferentiators []string          `toml:"main_differentiators" json:"main_differentiators"`
	ClientTypes         []string          `toml:"client_types" json:"client_types"`
	Approach            []string          `toml:"approach" json:"approach"`
	TeamValues          []string          `toml:"team_values" json:"team_values"`
	Products            map[string]string `toml:"products" json:"products"`
}

type QuestionGroup struct {
	Category  string   `toml:"category" json:"category"`
	Questions []string `toml:"questions" json:"questions"`
}

// TalkingPoints is the condensed view of a service used in replies.
type TalkingPoints struct {
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	KeyBenefits    []string    `json:"key_benefits"`
	ExpertiseAreas []string    `json:"expertise_areas"`
	RelevantCases  []CaseStudy `json:"relevant_cases"`
}

type document struct {
	Company             CompanyInfo                     `toml:"company"`
	Pitch               pitch                           `toml:"pitch"`
	Services            []Service                       `toml:"services"`
	CaseStudies         []CaseStudy                     `toml:"case_studies"`
	ValuePropositions   ValuePropositions               `toml:"value_propositions"`
	Objections          map[string]ObjectionResponse    `toml:"objections"`
	QualifyingQuestions []QuestionGroup                 `toml:"qualifying_questions"`
}

type pitch struct {
	Short    string `toml:"short"`
	Detailed string `toml:"detailed"`
}

type Base struct {
	doc document
}

// Load decodes the knowledge bundled with the binary.
func Load() (*Base, error) {
	return Parse(defaultData)
}

// Parse decodes a knowledge document in the bundled TOML layout.
func Parse(data []byte) (*Base, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge: %w", err)
	}
	if doc.Company.Name == "" {
		return nil, fmt.Errorf("knowledge is missing company name")
	}
	if len(doc.Services) == 0 {
		return nil, fmt.Errorf("knowledge has no services")
	}
	return &Base{doc: doc}, nil
}

// MustLoad is Load for program start-up and tests.
func MustLoad() *Base {
	base, err := Load()
	if err != nil {
		panic(err)
	}
	return base
}

func (b *Base) CompanyInfo() CompanyInfo {
	info := b.doc.Company
	info.Founders = slices.Clone(info.Founders)
	return info
}

func (b *Base) ValuePropositions() ValuePropositions {
	return b.doc.ValuePropositions
}

func (b *Base) Services() []Service {
	return slices.Clone(b.doc.Services)
}

func (b *Base) Service(key string) (Service, bool) {
	for _, service := range b.doc.Services {
		if service.Key == key {
			return service, true
		}
	}
	return Service{}, false
}

// MatchServiceToPainPoint returns the key of the first service with a pain
// point contained in text, or DefaultService.
func (b *Base) MatchServiceToPainPoint(text string) string {
	text = strings.ToLower(text)
	for _, service := range b.doc.Services {
		for _, painPoint := range service.PainPoints {
			if strings.Contains(text, painPoint) {
				return service.Key
			}
		}
	}
	return DefaultService
}

// RelevantCaseStudies returns at most two case studies mentioning one of
// the service's keywords.
func (b *Base) RelevantCaseStudies(serviceKey string) []CaseStudy {
	service, ok := b.Service(serviceKey)
	if !ok {
		return nil
	}

	relevant := []CaseStudy{}
	for _, caseStudy := range b.doc.CaseStudies {
		text := caseStudy.text()
		for _, keyword := range service.CaseStudyKeywords {
			if strings.Contains(text, strings.ToLower(keyword)) {
				relevant = append(relevant, caseStudy)
				break
			}
		}
		if len(relevant) == 2 {
			break
		}
	}
	return relevant
}

func (b *Base) ServiceTalkingPoints(serviceKey string) (TalkingPoints, bool) {
	service, ok := b.Service(serviceKey)
	if !ok {
		return TalkingPoints{}, false
	}
	return TalkingPoints{
		Name:           service.Name,
		Description:    service.Description,
		KeyBenefits:    slices.Clone(service.Outcomes),
		ExpertiseAreas: slices.Clone(service.Expertise),
		RelevantCases:  b.RelevantCaseStudies(serviceKey),
	}, true
}

func (b *Base) ObjectionResponse(objection Objection) (ObjectionResponse, bool) {
	response, ok := b.doc.Objections[string(objection)]
	return response, ok
}

func (b *Base) CaseStudies() []CaseStudy {
	return slices.Clone(b.doc.CaseStudies)
}

func (b *Base) QualifyingQuestions() []QuestionGroup {
	return slices.Clone(b.doc.QualifyingQuestions)
}

func (b *Base) ElevatorPitch(detailed bool) string {
	if detailed {
		return b.doc.Pitch.Detailed
	}
	return b.doc.Pitch.Short
}
