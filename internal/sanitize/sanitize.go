// Package sanitize normalizes free-text names into safe path segments,
// stable identifiers, and well-formed labels.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// pathHostileReplacement substitutes forward and backward slashes.
const pathHostileReplacement = '_'

// transliterations covers Latin letters whose canonical decomposition has no
// ASCII base letter.
var transliterations = map[rune]string{
	'ß': "ss", 'ẞ': "SS",
	'æ': "ae", 'Æ': "AE",
	'œ': "oe", 'Œ': "OE",
	'ø': "o", 'Ø': "O",
	'ł': "l", 'Ł': "L",
	'đ': "d", 'Đ': "D",
	'ð': "d", 'Ð': "D",
	'þ': "th", 'Þ': "TH",
	'ı': "i",
}

// SanitizeForID replaces path-hostile characters ('/' and '\') with '_' and
// transliterates Latin letters carrying diacritics to their closest ASCII
// form. Spaces and non-Latin characters are preserved. Transliteration is
// best-effort, not lossless. SanitizeForID is idempotent.
func SanitizeForID(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune = -1
	for _, r := range s {
		switch {
		case r == '/' || r == '\\':
			b.WriteRune(pathHostileReplacement)
		case r < utf8.RuneSelf:
			b.WriteRune(r)
		case unicode.Is(unicode.Mn, r) && prev >= 0 && prev < utf8.RuneSelf && unicode.IsLetter(prev):
			// combining mark on an ASCII letter: drop it
			continue
		case unicode.Is(unicode.Latin, r):
			b.WriteString(transliterate(r))
		default:
			b.WriteRune(r)
		}
		prev = lastRune(b.String())
	}
	return b.String()
}

// SanitizeForIDPtr applies SanitizeForID to a pointed-to string. A nil
// pointer is returned unchanged.
func SanitizeForIDPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := SanitizeForID(*s)
	return &out
}

// SanitizeAny sanitizes v when it is a string or *string and returns every
// other value (including nil) unchanged.
func SanitizeAny(v any) any {
	switch t := v.(type) {
	case string:
		return SanitizeForID(t)
	case *string:
		return SanitizeForIDPtr(t)
	default:
		return v
	}
}

func transliterate(r rune) string {
	if t, ok := transliterations[r]; ok {
		return t
	}
	decomposed := norm.NFD.String(string(r))
	base, size := utf8.DecodeRuneInString(decomposed)
	if base < utf8.RuneSelf && unicode.IsLetter(base) {
		rest := decomposed[size:]
		if strings.IndexFunc(rest, func(m rune) bool { return !unicode.Is(unicode.Mn, m) }) < 0 {
			return string(base)
		}
	}
	return string(r)
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	if r == utf8.RuneError {
		return -1
	}
	return r
}
