package sanitize

import (
	"fmt"
	"net/url"
	"strings"
)

// legacyEscapes are characters a URL component encoder leaves literal but
// the documentation viewer expects percent-escaped in directory names.
var legacyEscapes = strings.NewReplacer(
	"~", "%7E",
)

// EncodeFileName form-encodes name into a single path segment. Spaces become
// '+', and '(', ')', '\'', '!', '~' and '*' are percent-escaped. The segments
// "." and ".." are escaped so they never address a parent directory.
func EncodeFileName(name string) string {
	encoded := legacyEscapes.Replace(url.QueryEscape(name))
	if encoded == "." || encoded == ".." {
		encoded = strings.ReplaceAll(encoded, ".", "%2E")
	}
	return encoded
}

// DecodeFileName reverses EncodeFileName.
func DecodeFileName(encoded string) (string, error) {
	name, err := url.QueryUnescape(encoded)
	if err != nil {
		return "", fmt.Errorf("decoding file name %q: %w", encoded, err)
	}
	return name, nil
}

// PathSegment sanitizes and encodes name for use as a directory name.
func PathSegment(name string) string {
	return EncodeFileName(SanitizeForID(name))
}

// StepFileName returns the zero-padded base name for a step index: at least
// three digits, growing without bound ("000", "999", "1000").
func StepFileName(index int) string {
	return fmt.Sprintf("%03d", index)
}
