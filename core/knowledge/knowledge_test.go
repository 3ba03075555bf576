package knowledge

import (
	"strings"
	"testing"
)

func TestLoadDecodesBundledKnowledge(t *testing.T) {
	base, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info := base.CompanyInfo()
	if info.Name != "CoffeeBeans Consulting" || info.Founded != "2017" {
		t.Fatalf("unexpected company info: %+v", info)
	}
	if got := len(base.Services()); got != 4 {
		t.Fatalf("expected 4 services, got %d", got)
	}
	if got := len(base.CaseStudies()); got != 5 {
		t.Fatalf("expected 5 case studies, got %d", got)
	}
	if got := base.ValuePropositions().Products["WRU"]; got == "" {
		t.Fatal("expected WRU product description")
	}
	if !strings.Contains(base.ElevatorPitch(false), "The Quint") {
		t.Fatalf("unexpected short pitch %q", base.ElevatorPitch(false))
	}
	if !strings.Contains(base.ElevatorPitch(true), "founded in 2017") {
		t.Fatalf("unexpected detailed pitch %q", base.ElevatorPitch(true))
	}
}

func TestMatchServiceToPainPoint(t *testing.T) {
	base := MustLoad()

	tests := []struct {
		need string
		want string
	}{
		{"We have serious Data Quality Issues", "big_data_analytics"},
		{"our legacy systems are slowing us down", "technology_advisory"},
		{"supply chain visibility is poor", "blockchain"},
		{"our AI pilots not scaling past the demo", "artificial_intelligence"},
		{"something completely different", DefaultService},
	}
	for _, tt := range tests {
		if got := base.MatchServiceToPainPoint(tt.need); got != tt.want {
			t.Errorf("MatchServiceToPainPoint(%q) = %q, want %q", tt.need, got, tt.want)
		}
	}
}

func TestServiceTalkingPointsIncludeAtMostTwoCases(t *testing.T) {
	base := MustLoad()

	points, ok := base.ServiceTalkingPoints("technology_advisory")
	if !ok {
		t.Fatal("expected technology_advisory to exist")
	}
	if points.Name != "Technology Advisory & Consulting" {
		t.Fatalf("unexpected name %q", points.Name)
	}
	if len(points.RelevantCases) == 0 || len(points.RelevantCases) > 2 {
		t.Fatalf("expected 1-2 relevant cases, got %d", len(points.RelevantCases))
	}
	if points.RelevantCases[0].Client != "Ola" {
		t.Fatalf("expected Ola as the process case, got %q", points.RelevantCases[0].Client)
	}

	if _, ok := base.ServiceTalkingPoints("quantum"); ok {
		t.Fatal("expected unknown service to be missing")
	}
}

func TestReturnedSlicesDoNotAliasBase(t *testing.T) {
	base := MustLoad()

	services := base.Services()
	services[0].Name = "changed"
	if base.Services()[0].Name == "changed" {
		t.Fatal("expected base to stay unchanged")
	}
}

func TestObjectionResponses(t *testing.T) {
	base := MustLoad()

	for _, objection := range []Objection{
		ObjectionTooExpensive, ObjectionHaveInternalTeam, ObjectionNotRightTime,
		ObjectionNeedToThink, ObjectionWorkingWithCompetitor, ObjectionTooBusy,
	} {
		response, ok := base.ObjectionResponse(objection)
		if !ok || response.Response == "" || len(response.KeyPoints) == 0 {
			t.Errorf("expected a response for %s, got %+v", objection, response)
		}
	}
}

func TestParseRejectsIncompleteDocuments(t *testing.T) {
	if _, err := Parse([]byte(`[company]`)); err == nil {
		t.Fatal("expected error for missing company name")
	}
	if _, err := Parse([]byte("[company]\nname = \"x\"")); err == nil {
		t.Fatal("expected error for missing services")
	}
	if _, err := Parse([]byte(`not = [valid`)); err == nil {
		t.Fatal("expected decode error")
	}
}
