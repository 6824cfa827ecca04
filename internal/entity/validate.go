package entity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/eykd/scenariodoc/internal/sanitize"
)

// Schema selects which generation of validation rules applies.
type Schema string

const (
	// SchemaCurrent accepts free-form use case and scenario statuses and
	// requires ids. Build status stays restricted to success/failed.
	SchemaCurrent Schema = "current"
	// SchemaLegacy restricts every status to success/failed and only
	// requires names.
	SchemaLegacy Schema = "legacy"
)

// ParseSchema maps a configuration value to a Schema. Empty means current.
func ParseSchema(s string) (Schema, error) {
	switch Schema(strings.TrimSpace(s)) {
	case "", SchemaCurrent:
		return SchemaCurrent, nil
	case SchemaLegacy:
		return SchemaLegacy, nil
	default:
		return "", fmt.Errorf("unknown schema %q (want %q or %q)", s, SchemaCurrent, SchemaLegacy)
	}
}

// Violation is a single broken rule.
type Violation struct {
	// Field is the path of the offending field, e.g. "screenAnnotations[0].region".
	Field string
	// Rule describes what the field must satisfy.
	Rule string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Rule
}

// ValidationError lists every rule an entity violates.
type ValidationError struct {
	Kind       Kind
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(parts, "; "))
}

// Validator checks entities against a Schema. The zero value validates
// against SchemaCurrent.
type Validator struct {
	Schema Schema
}

type violations []Violation

func (vs *violations) add(field, rule string) {
	*vs = append(*vs, Violation{Field: field, Rule: rule})
}

func (vs violations) err(kind Kind) error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Kind: kind, Violations: vs}
}

func (v Validator) legacy() bool {
	return v.Schema == SchemaLegacy
}

// ValidateBranch checks a Branch.
func (v Validator) ValidateBranch(b Branch) error {
	var vs violations
	if strings.TrimSpace(b.Name) == "" {
		vs.add("name", "is required")
	}
	if !v.legacy() && strings.TrimSpace(b.ID) == "" {
		vs.add("id", "is required")
	}
	return vs.err(KindBranch)
}

// ValidateBuild checks a Build. Status is optional but, when present, must be
// success or failed under every schema.
func (v Validator) ValidateBuild(b Build) error {
	var vs violations
	if strings.TrimSpace(b.Name) == "" {
		vs.add("name", "is required")
	}
	if b.Date.IsZero() {
		vs.add("date", "is required")
	}
	if b.Status != "" && b.Status != StatusSuccess && b.Status != StatusFailed {
		vs.add("status", fmt.Sprintf("must be %q or %q, got %q", StatusSuccess, StatusFailed, b.Status))
	}
	checkCounters(&vs, map[string]int{
		"passedUseCases": b.PassedUseCases, "failedUseCases": b.FailedUseCases, "skippedUseCases": b.SkippedUseCases,
	})
	return vs.err(KindBuild)
}

// ValidateUseCase checks a UseCase.
func (v Validator) ValidateUseCase(u UseCase) error {
	var vs violations
	v.checkNamed(&vs, u.ID, u.Name)
	v.checkStatus(&vs, u.Status)
	checkLabels(&vs, "labels", u.Labels)
	checkCounters(&vs, map[string]int{
		"passedScenarios": u.PassedScenarios, "failedScenarios": u.FailedScenarios, "skippedScenarios": u.SkippedScenarios,
	})
	return vs.err(KindUseCase)
}

// ValidateScenario checks a Scenario.
func (v Validator) ValidateScenario(s Scenario) error {
	var vs violations
	v.checkNamed(&vs, s.ID, s.Name)
	v.checkStatus(&vs, s.Status)
	checkLabels(&vs, "labels", s.Labels)
	return vs.err(KindScenario)
}

// ValidateStep checks a Step.
func (v Validator) ValidateStep(s Step) error {
	var vs violations
	if s.Index < 0 {
		vs.add("index", "must not be negative")
	}
	if s.Page != nil && strings.TrimSpace(s.Page.Name) == "" {
		vs.add("page.name", "is required when page is present")
	}
	checkLabels(&vs, "labels", s.Labels)
	for i, a := range s.ScreenAnnotations {
		prefix := fmt.Sprintf("screenAnnotations[%d]", i)
		if a.Region == nil {
			vs.add(prefix+".region", "is required")
		} else {
			if a.Region.X < 0 {
				vs.add(prefix+".region.x", "must not be negative")
			}
			if a.Region.Y < 0 {
				vs.add(prefix+".region.y", "must not be negative")
			}
			if a.Region.Width < 0 {
				vs.add(prefix+".region.width", "must not be negative")
			}
			if a.Region.Height < 0 {
				vs.add(prefix+".region.height", "must not be negative")
			}
		}
		if a.Style != "" && !knownStyles[a.Style] {
			vs.add(prefix+".style", fmt.Sprintf("unknown style %q", a.Style))
		}
		switch a.ClickAction {
		case "", ClickToNextStep:
		case ClickToURL:
			if strings.TrimSpace(a.ClickActionURL) == "" {
				vs.add(prefix+".clickActionUrl", "is required for clickAction toUrl")
			}
		default:
			vs.add(prefix+".clickAction", fmt.Sprintf("unknown click action %q", a.ClickAction))
		}
	}
	return vs.err(KindStep)
}

// Validate dispatches on the dynamic type of e, which must be one of the
// entity structs or a pointer to one.
func (v Validator) Validate(e any) error {
	switch t := e.(type) {
	case Branch:
		return v.ValidateBranch(t)
	case *Branch:
		return v.ValidateBranch(*t)
	case Build:
		return v.ValidateBuild(t)
	case *Build:
		return v.ValidateBuild(*t)
	case UseCase:
		return v.ValidateUseCase(t)
	case *UseCase:
		return v.ValidateUseCase(*t)
	case Scenario:
		return v.ValidateScenario(t)
	case *Scenario:
		return v.ValidateScenario(*t)
	case Step:
		return v.ValidateStep(t)
	case *Step:
		return v.ValidateStep(*t)
	default:
		return fmt.Errorf("cannot validate %T: not an entity", e)
	}
}

func (v Validator) checkNamed(vs *violations, id, name string) {
	if strings.TrimSpace(name) == "" {
		vs.add("name", "is required")
	}
	if !v.legacy() && strings.TrimSpace(id) == "" {
		vs.add("id", "is required")
	}
}

func (v Validator) checkStatus(vs *violations, s Status) {
	if strings.TrimSpace(string(s)) == "" {
		vs.add("status", "is required")
		return
	}
	if v.legacy() && s != StatusSuccess && s != StatusFailed {
		vs.add("status", fmt.Sprintf("must be %q or %q, got %q", StatusSuccess, StatusFailed, s))
	}
}

func checkLabels(vs *violations, field string, labels []string) {
	for i, l := range labels {
		if !sanitize.IsValidLabel(l) {
			vs.add(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("label %q has invalid characters", l))
		}
	}
}

func checkCounters(vs *violations, counters map[string]int) {
	for _, name := range sortedKeys(counters) {
		if counters[name] < 0 {
			vs.add(name, "must not be negative")
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
