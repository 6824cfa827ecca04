// Package inspect audits a written documentation tree: every entity file
// must decode and validate, step files must be numbered without gaps, and
// every step's screenshot must be present.
package inspect

// Code identifies the rule a Diagnostic reports on.
type Code string

const (
	// DOC001 indicates an entity file that cannot be decoded.
	DOC001 Code = "DOC001"
	// DOC002 indicates an entity that fails validation.
	DOC002 Code = "DOC002"
	// DOC003 indicates a gap in a scenario's step numbering.
	DOC003 Code = "DOC003"
	// DOC004 indicates a step whose screenshot file is missing.
	DOC004 Code = "DOC004"
	// DOC005 indicates a directory without its entity file.
	DOC005 Code = "DOC005"
	// DOC006 indicates a step file whose name is not a step index.
	DOC006 Code = "DOC006"
	// DOC007 indicates a step whose index differs from its file name.
	DOC007 Code = "DOC007"
	// DOC008 indicates an entity stored under a directory that is not named
	// after it.
	DOC008 Code = "DOC008"
	// DOCW001 is a warning that a parent's counters disagree with its children.
	DOCW001 Code = "DOCW001"
	// DOCW002 is a warning about a file that does not belong in the tree.
	DOCW002 Code = "DOCW002"
	// DOCW003 is a warning about a screenshot no step refers to.
	DOCW003 Code = "DOCW003"
)

// Severity classifies a Diagnostic.
type Severity string

const (
	// SeverityError marks a tree the viewer cannot load correctly.
	SeverityError Severity = "error"
	// SeverityWarning marks something worth a look.
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single finding.
type Diagnostic struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	// Path is slash-separated and relative to the documentation root.
	Path string `json:"path"`
}

// Counts tallies the entities found in a tree.
type Counts struct {
	Branches    int `json:"branches"`
	Builds      int `json:"builds"`
	UseCases    int `json:"useCases"`
	Scenarios   int `json:"scenarios"`
	Steps       int `json:"steps"`
	Screenshots int `json:"screenshots"`
}

// Report is the result of an audit.
type Report struct {
	Counts      Counts       `json:"counts"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// HasErrors reports whether any diagnostic is an error.
func (r Report) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

func errDiag(code Code, path, message string) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityError, Message: message, Path: path}
}

func warnDiag(code Code, path, message string) Diagnostic {
	return Diagnostic{Code: code, Severity: SeverityWarning, Message: message, Path: path}
}
