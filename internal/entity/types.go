// Package entity defines the documentation records persisted for a test run
// and the rules they must satisfy before being written.
package entity

import (
	"encoding/xml"
	"time"
)

// Kind identifies an entity type. Its value is the root element name used
// when the entity is serialized.
type Kind string

const (
	// KindBranch is a documentation lineage such as a release line.
	KindBranch Kind = "branch"
	// KindBuild is one documentation-generating run.
	KindBuild Kind = "build"
	// KindUseCase is a named group of scenarios.
	KindUseCase Kind = "useCase"
	// KindScenario is a single test case within a use case.
	KindScenario Kind = "scenario"
	// KindStep is one captured point-in-time artifact within a scenario.
	KindStep Kind = "step"
)

// FileBase returns the base file name (without extension) an entity of this
// kind is written to. Steps are named by index instead.
func (k Kind) FileBase() string {
	switch k {
	case KindUseCase:
		return "usecase"
	default:
		return string(k)
	}
}

// Status is the outcome of a scenario, use case, or build.
type Status string

const (
	// StatusSuccess means every check passed.
	StatusSuccess Status = "success"
	// StatusFailed means at least one check failed.
	StatusFailed Status = "failed"
	// StatusSkipped means the item was not executed.
	StatusSkipped Status = "skipped"
)

// KnownStatuses lists the scenario outcomes the recorder understands.
var KnownStatuses = []Status{StatusSuccess, StatusFailed, StatusSkipped}

// IsKnown reports whether s is one of KnownStatuses.
func (s Status) IsKnown() bool {
	for _, k := range KnownStatuses {
		if s == k {
			return true
		}
	}
	return false
}

// Branch identifies a documentation lineage.
type Branch struct {
	XMLName     xml.Name `xml:"branch" json:"-"`
	ID          string   `xml:"id,omitempty" json:"id,omitempty"`
	Name        string   `xml:"name" json:"name"`
	Description string   `xml:"description,omitempty" json:"description,omitempty"`
}

// Build is one documentation-generating run within a branch.
type Build struct {
	XMLName         xml.Name  `xml:"build" json:"-"`
	Name            string    `xml:"name" json:"name"`
	Revision        string    `xml:"revision,omitempty" json:"revision,omitempty"`
	Date            time.Time `xml:"date" json:"date"`
	Status          Status    `xml:"status,omitempty" json:"status,omitempty"`
	PassedUseCases  int       `xml:"passedUseCases" json:"passedUseCases"`
	FailedUseCases  int       `xml:"failedUseCases" json:"failedUseCases"`
	SkippedUseCases int       `xml:"skippedUseCases" json:"skippedUseCases"`
}

// UseCase is a named grouping of scenarios.
type UseCase struct {
	XMLName          xml.Name `xml:"useCase" json:"-"`
	ID               string   `xml:"id,omitempty" json:"id,omitempty"`
	Name             string   `xml:"name" json:"name"`
	Description      string   `xml:"description,omitempty" json:"description,omitempty"`
	Status           Status   `xml:"status,omitempty" json:"status,omitempty"`
	Labels           []string `xml:"labels>label,omitempty" json:"labels,omitempty"`
	PassedScenarios  int      `xml:"passedScenarios" json:"passedScenarios"`
	FailedScenarios  int      `xml:"failedScenarios" json:"failedScenarios"`
	SkippedScenarios int      `xml:"skippedScenarios" json:"skippedScenarios"`
}

// Scenario is a single test case within a use case.
type Scenario struct {
	XMLName     xml.Name `xml:"scenario" json:"-"`
	ID          string   `xml:"id,omitempty" json:"id,omitempty"`
	Name        string   `xml:"name" json:"name"`
	Description string   `xml:"description,omitempty" json:"description,omitempty"`
	Status      Status   `xml:"status,omitempty" json:"status,omitempty"`
	Labels      []string `xml:"labels>label,omitempty" json:"labels,omitempty"`
	// StepCounter is run state, never persisted. It starts at -1 so the first
	// recorded step gets index 0.
	StepCounter int `xml:"-" json:"-"`
}

// Step is one captured point-in-time artifact within a scenario.
type Step struct {
	XMLName            xml.Name           `xml:"step" json:"-"`
	Index              int                `xml:"index" json:"index"`
	Title              string             `xml:"title,omitempty" json:"title,omitempty"`
	Status             Status             `xml:"status,omitempty" json:"status,omitempty"`
	Labels             []string           `xml:"labels>label,omitempty" json:"labels,omitempty"`
	Page               *Page              `xml:"page,omitempty" json:"page,omitempty"`
	URL                string             `xml:"url,omitempty" json:"url,omitempty"`
	ScreenshotFileName string             `xml:"screenshotFileName,omitempty" json:"screenshotFileName,omitempty"`
	PageSource         string             `xml:"html>htmlSource,omitempty" json:"pageSource,omitempty"`
	ScreenAnnotations  []ScreenAnnotation `xml:"screenAnnotations>screenAnnotation,omitempty" json:"screenAnnotations,omitempty"`
}

// Page names the screen or route a step was captured on.
type Page struct {
	Name string `xml:"name" json:"name"`
}

// AnnotationStyle controls how the viewer draws a ScreenAnnotation.
type AnnotationStyle string

// Recognized annotation styles.
const (
	StyleNormal    AnnotationStyle = "normal"
	StyleClick     AnnotationStyle = "click"
	StyleKeyboard  AnnotationStyle = "keyboard"
	StyleExpected  AnnotationStyle = "expected"
	StyleError     AnnotationStyle = "error"
	StyleWarn      AnnotationStyle = "warn"
	StyleInfo      AnnotationStyle = "info"
	StyleHighlight AnnotationStyle = "highlight"
)

var knownStyles = map[AnnotationStyle]bool{
	StyleNormal: true, StyleClick: true, StyleKeyboard: true, StyleExpected: true,
	StyleError: true, StyleWarn: true, StyleInfo: true, StyleHighlight: true,
}

// ClickAction is what the viewer does when an annotation is clicked.
type ClickAction string

// Recognized click actions.
const (
	ClickToNextStep ClickAction = "toNextStep"
	ClickToURL      ClickAction = "toUrl"
)

// ScreenAnnotation is a rectangular overlay on a step's screenshot.
type ScreenAnnotation struct {
	Region         *Region         `xml:"region" json:"region"`
	Style          AnnotationStyle `xml:"style,omitempty" json:"style,omitempty"`
	Title          string          `xml:"title,omitempty" json:"title,omitempty"`
	Description    string          `xml:"description,omitempty" json:"description,omitempty"`
	ScreenText     string          `xml:"screenText,omitempty" json:"screenText,omitempty"`
	ClickAction    ClickAction     `xml:"clickAction,omitempty" json:"clickAction,omitempty"`
	ClickActionURL string          `xml:"clickActionUrl,omitempty" json:"clickActionUrl,omitempty"`
}

// Region is a rectangle in screenshot pixel coordinates.
type Region struct {
	X      int `xml:"x" json:"x"`
	Y      int `xml:"y" json:"y"`
	Width  int `xml:"width" json:"width"`
	Height int `xml:"height" json:"height"`
}
