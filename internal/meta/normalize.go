package meta

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanString performs basic string cleaning (Unicode, trim, collapse)
func CleanString(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFC.String(s)
	return collapseWhitespace(s)
}

// collapseWhitespace replaces multiple spaces with a single space
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Words that stay lowercase in title case unless they open the string
var lowercaseWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "but": true, "nor": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true, "by": true,
	"feat": true, "feat.": true, "ft": true, "ft.": true,
	"vs": true, "vs.": true,
}

// TitleCase applies smart title casing to a string
// Small words like "the", "and", "feat." stay lowercase inside the string
func TitleCase(s string) string {
	if s == "" {
		return ""
	}

	words := strings.Fields(s)
	result := make([]string, len(words))

	for i, word := range words {
		lowerWord := strings.ToLower(word)

		// First and last word always capitalized
		if i > 0 && i < len(words)-1 && lowercaseWords[lowerWord] {
			result[i] = lowerWord
			continue
		}

		result[i] = capitalizeWord(word)
	}

	return strings.Join(result, " ")
}

// capitalizeWord raises the first letter of a word and leaves the rest
// alone, so acronyms and names like "McCartney" survive
func capitalizeWord(word string) string {
	runes := []rune(word)

	// Skip leading punctuation so "(live" becomes "(Live"
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}

	return string(runes)
}

// SanitizeFilename removes or replaces characters that are unsafe in filenames
func SanitizeFilename(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFC.String(s)

	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "'",
		"<", "",
		">", "",
		"|", "-",
	)
	s = replacer.Replace(s)

	s = removeControlChars(s)
	s = collapseWhitespace(s)

	// Trailing dots break paths on Windows shares
	return strings.Trim(s, " .")
}

// removeControlChars removes non-printable control characters
func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
