package acceptance

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/eykd/scenariodoc/internal/entity"
)

// Keywords lists the step keywords in match order.
var Keywords = []string{"GIVEN", "WHEN", "THEN", "AND"}

// ParseError reports a malformed directive.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

// isSeparatorLine reports whether the line consists only of ; and = characters.
func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, c := range trimmed {
		if c != ';' && c != '=' {
			return false
		}
	}
	return true
}

// commentText returns the text of a ; comment line.
func commentText(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ";") || isSeparatorLine(trimmed) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimLeft(trimmed, ";")), true
}

// parseKeyword splits a step line into keyword and text. The keyword must
// be followed by whitespace or end the line.
func parseKeyword(line string) (keyword, text string) {
	trimmed := strings.TrimSpace(line)
	for _, kw := range Keywords {
		rest, ok := strings.CutPrefix(trimmed, kw)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		return kw, strings.TrimSpace(rest)
	}
	return "", ""
}

func splitLabels(value string) []string {
	var out []string
	for _, l := range strings.Split(value, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// ParseSpec parses a spec file's content into a Feature. It performs no IO.
//
// A ;=== separator opens a header whose first comment line names the next
// scenario. Comment lines starting with @ are directives: @title (feature
// only), @status and @labels apply to the current scenario, or to the
// feature before the first scenario.
func ParseSpec(content, sourcePath string) (*Feature, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	feature := &Feature{
		SourceFile: sourcePath,
		Title:      strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath)),
	}
	current := func() *Scenario {
		if len(feature.Scenarios) == 0 {
			return nil
		}
		return &feature.Scenarios[len(feature.Scenarios)-1]
	}

	inHeader, named := false, false
	for i, line := range lines {
		lineNum := i + 1

		if isSeparatorLine(line) {
			inHeader = !inHeader
			named = false
			continue
		}

		if text, ok := commentText(line); ok {
			if strings.HasPrefix(text, "@") {
				if err := applyDirective(feature, current(), text); err != nil {
					return nil, &ParseError{Path: sourcePath, Line: lineNum, Msg: err.Error()}
				}
				continue
			}
			if inHeader && !named {
				feature.Scenarios = append(feature.Scenarios, Scenario{Description: text, Line: lineNum})
				named = true
			}
			continue
		}

		keyword, text := parseKeyword(line)
		if keyword == "" {
			continue
		}
		if current() == nil {
			feature.Scenarios = append(feature.Scenarios, Scenario{Line: lineNum})
		}
		sc := current()
		sc.Steps = append(sc.Steps, Step{Keyword: keyword, Text: text, Line: lineNum})
	}

	return feature, nil
}

func applyDirective(feature *Feature, sc *Scenario, text string) error {
	name, value, _ := strings.Cut(strings.TrimPrefix(text, "@"), " ")
	value = strings.TrimSpace(value)
	switch strings.ToLower(name) {
	case "title":
		if sc != nil {
			return fmt.Errorf("@title must appear before the first scenario")
		}
		if value == "" {
			return fmt.Errorf("@title needs a value")
		}
		feature.Title = value
	case "status":
		status := entity.Status(strings.ToLower(value))
		if !status.IsKnown() {
			return fmt.Errorf("unknown status %q (want one of %v)", value, entity.KnownStatuses)
		}
		if sc != nil {
			sc.Status = status
		} else {
			feature.Status = status
		}
	case "labels":
		labels := splitLabels(value)
		if sc != nil {
			sc.Labels = append(sc.Labels, labels...)
		} else {
			feature.Labels = append(feature.Labels, labels...)
		}
	default:
		return fmt.Errorf("unknown directive @%s", name)
	}
	return nil
}
