// Package acceptance parses GWT (Given-When-Then) acceptance spec files so
// their scenarios can be documented without running them.
package acceptance

import "github.com/eykd/scenariodoc/internal/entity"

// Step is a single GIVEN, WHEN, THEN or AND line of a scenario.
type Step struct {
	// Keyword is the step type: "GIVEN", "WHEN", "THEN" or "AND".
	Keyword string `json:"keyword"`
	// Text is the step description without the keyword prefix.
	Text string `json:"text"`
	// Line is the 1-based source line of the step.
	Line int `json:"line"`
}

// Scenario is a named acceptance scenario.
type Scenario struct {
	// Description is the title taken from the ;=== header block.
	Description string `json:"description"`
	// Status is set by an @status directive inside the scenario.
	Status entity.Status `json:"status,omitempty"`
	// Labels are set by @labels directives inside the scenario.
	Labels []string `json:"labels,omitempty"`
	Steps  []Step   `json:"steps"`
	Line   int      `json:"line"`
}

// Feature is one parsed spec file.
type Feature struct {
	SourceFile string `json:"sourceFile"`
	// Title defaults to the file name without its extension.
	Title string `json:"title"`
	// Status applies to scenarios that carry no @status of their own.
	Status    entity.Status `json:"status,omitempty"`
	Labels    []string      `json:"labels,omitempty"`
	Scenarios []Scenario    `json:"scenarios"`
}

// ScenarioStatus returns the status of the scenario at index i, falling
// back to the feature status and then to fallback.
func (f *Feature) ScenarioStatus(i int, fallback entity.Status) entity.Status {
	if s := f.Scenarios[i].Status; s != "" {
		return s
	}
	if f.Status != "" {
		return f.Status
	}
	return fallback
}
