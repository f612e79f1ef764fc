package render

import (
	"strings"
	"unicode/utf8"

	"github.com/franz/tag-enforcer/internal/meta"
)

// Modifier transforms a substituted value. Modifiers are keyed by a single
// symbol written after "*" in a directive, e.g. ${trackNumber*0}.
type Modifier func(string) string

// Modifiers maps modifier symbols to transforms
type Modifiers map[string]Modifier

// DefaultModifiers returns the built-in modifier table:
//
//	^  title case
//	0  zero-pad to width 2
//	~  make safe for use as a file name
//	<  lower case
//	>  upper case
func DefaultModifiers() Modifiers {
	return Modifiers{
		"^": meta.TitleCase,
		"0": func(s string) string { return padLeft(s, 2, '0') },
		"~": meta.SanitizeFilename,
		"<": strings.ToLower,
		">": strings.ToUpper,
	}
}

// With returns a copy of m with extra modifiers added or replaced
func (m Modifiers) With(extra Modifiers) Modifiers {
	out := make(Modifiers, len(m)+len(extra))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func padLeft(s string, width int, pad rune) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(string(pad), width-n) + s
}
