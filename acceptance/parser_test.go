package acceptance

import (
	"errors"
	"reflect"
	"testing"

	"github.com/eykd/scenariodoc/internal/entity"
)

const loginSpec = `; @title Login
; @labels auth
;===============================================================
; Valid credentials open the dashboard.
;===============================================================
; @status success
GIVEN a registered user.

WHEN the user signs in with the right password.
AND the user accepts the terms.

THEN the dashboard is shown.

;===============================================================
; Wrong password shows an error.
;===============================================================
; @labels negative, smoke
GIVEN a registered user.
WHEN the user signs in with a wrong password.
THEN an error is shown.
`

func TestParseSpec_Login(t *testing.T) {
	feature, err := ParseSpec(loginSpec, "specs/login.txt")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	if feature.Title != "Login" {
		t.Errorf("Title = %q, want %q", feature.Title, "Login")
	}
	if !reflect.DeepEqual(feature.Labels, []string{"auth"}) {
		t.Errorf("Labels = %v, want [auth]", feature.Labels)
	}
	if len(feature.Scenarios) != 2 {
		t.Fatalf("len(Scenarios) = %d, want 2", len(feature.Scenarios))
	}

	first := feature.Scenarios[0]
	if first.Description != "Valid credentials open the dashboard." {
		t.Errorf("Scenarios[0].Description = %q", first.Description)
	}
	if first.Line != 4 {
		t.Errorf("Scenarios[0].Line = %d, want 4", first.Line)
	}
	if first.Status != entity.StatusSuccess {
		t.Errorf("Scenarios[0].Status = %q, want success", first.Status)
	}
	wantSteps := []Step{
		{Keyword: "GIVEN", Text: "a registered user.", Line: 7},
		{Keyword: "WHEN", Text: "the user signs in with the right password.", Line: 9},
		{Keyword: "AND", Text: "the user accepts the terms.", Line: 10},
		{Keyword: "THEN", Text: "the dashboard is shown.", Line: 12},
	}
	if !reflect.DeepEqual(first.Steps, wantSteps) {
		t.Errorf("Scenarios[0].Steps = %+v, want %+v", first.Steps, wantSteps)
	}

	second := feature.Scenarios[1]
	if second.Status != "" {
		t.Errorf("Scenarios[1].Status = %q, want empty", second.Status)
	}
	if !reflect.DeepEqual(second.Labels, []string{"negative", "smoke"}) {
		t.Errorf("Scenarios[1].Labels = %v", second.Labels)
	}
	if len(second.Steps) != 3 {
		t.Errorf("Scenarios[1] len(Steps) = %d, want 3", len(second.Steps))
	}
}

func TestParseSpec_TitleDefaultsToFileName(t *testing.T) {
	feature, err := ParseSpec("", "specs/US7-checkout.txt")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	if feature.Title != "US7-checkout" {
		t.Errorf("Title = %q, want %q", feature.Title, "US7-checkout")
	}
	if len(feature.Scenarios) != 0 {
		t.Errorf("len(Scenarios) = %d, want 0", len(feature.Scenarios))
	}
}

func TestParseSpec_StepsWithoutHeader(t *testing.T) {
	content := "GIVEN something.\nWHEN action.\nTHEN result.\n"
	feature, err := ParseSpec(content, "test.txt")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	if len(feature.Scenarios) != 1 {
		t.Fatalf("len(Scenarios) = %d, want 1", len(feature.Scenarios))
	}
	if feature.Scenarios[0].Description != "" {
		t.Errorf("Description = %q, want empty", feature.Scenarios[0].Description)
	}
	if len(feature.Scenarios[0].Steps) != 3 {
		t.Errorf("len(Steps) = %d, want 3", len(feature.Scenarios[0].Steps))
	}
}

func TestParseSpec_HeaderCommentsAfterDescription(t *testing.T) {
	content := `;=====
; Checkout.
; Extra detail about the scenario.
;=====
; a plain comment
GIVEN a cart.
GIVENS is not a keyword.
`
	feature, err := ParseSpec(content, "test.txt")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	if len(feature.Scenarios) != 1 {
		t.Fatalf("len(Scenarios) = %d, want 1", len(feature.Scenarios))
	}
	if got := len(feature.Scenarios[0].Steps); got != 1 {
		t.Errorf("len(Steps) = %d, want 1", got)
	}
}

func TestParseSpec_WindowsLineEndings(t *testing.T) {
	content := ";=====\r\n; Windows scenario.\r\n;=====\r\nGIVEN a windows file.\r\nTHEN it still parses.\r\n"
	feature, err := ParseSpec(content, "test.txt")
	if err != nil {
		t.Fatalf("ParseSpec() error = %v", err)
	}
	if feature.Scenarios[0].Description != "Windows scenario." {
		t.Errorf("Description = %q", feature.Scenarios[0].Description)
	}
	if feature.Scenarios[0].Steps[0].Text != "a windows file." {
		t.Errorf("Step.Text = %q", feature.Scenarios[0].Steps[0].Text)
	}
}

func TestParseSpec_DirectiveErrors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine int
	}{
		{"unknown directive", "; @owner qa\n", 1},
		{"unknown status", ";==\n; S.\n;==\n; @status broken\n", 4},
		{"title inside scenario", ";==\n; S.\n;==\n; @title Late\n", 4},
		{"empty title", "\n; @title\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSpec(tt.content, "bad.txt")
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", perr.Line, tt.wantLine)
			}
			if perr.Path != "bad.txt" {
				t.Errorf("Path = %q, want bad.txt", perr.Path)
			}
		})
	}
}

func TestFeature_ScenarioStatus(t *testing.T) {
	feature := &Feature{
		Scenarios: []Scenario{{Status: entity.StatusFailed}, {}},
	}
	if got := feature.ScenarioStatus(0, entity.StatusSkipped); got != entity.StatusFailed {
		t.Errorf("ScenarioStatus(0) = %q, want failed", got)
	}
	if got := feature.ScenarioStatus(1, entity.StatusSkipped); got != entity.StatusSkipped {
		t.Errorf("ScenarioStatus(1) = %q, want skipped", got)
	}
	feature.Status = entity.StatusSuccess
	if got := feature.ScenarioStatus(1, entity.StatusSkipped); got != entity.StatusSuccess {
		t.Errorf("ScenarioStatus(1) with feature status = %q, want success", got)
	}
}
