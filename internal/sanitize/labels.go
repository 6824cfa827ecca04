package sanitize

import (
	"fmt"
	"regexp"
	"strings"
)

// labelRE is the accepted label format: letters, digits, spaces, '_' and '-'.
var labelRE = regexp.MustCompile(`^[ A-Za-z0-9_-]+$`)

// LabelFormatError reports a label that does not match the label format.
type LabelFormatError struct {
	Label string
}

func (e *LabelFormatError) Error() string {
	return fmt.Sprintf("label %q is invalid: only letters, digits, spaces, '_' and '-' are allowed", e.Label)
}

// IsValidLabel reports whether label matches the label format.
func IsValidLabel(label string) bool {
	return labelRE.MatchString(label)
}

// ValidateLabel returns a *LabelFormatError when label is malformed.
func ValidateLabel(label string) error {
	if !IsValidLabel(label) {
		return &LabelFormatError{Label: label}
	}
	return nil
}

// ValidateLabels checks every label and returns the first failure.
func ValidateLabels(labels []string) error {
	for _, l := range labels {
		if err := ValidateLabel(l); err != nil {
			return err
		}
	}
	return nil
}

// SanitizeLabel replaces every character outside the label format with '-'.
func SanitizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, label)
}

// SanitizeLabels applies SanitizeLabel to each label independently. A nil
// slice is returned as nil.
func SanitizeLabels(labels []string) []string {
	if labels == nil {
		return nil
	}
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = SanitizeLabel(l)
	}
	return out
}
