// Package names normalizes upstream station names for display.
package names

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// minorWords stay lower-case unless they open or close the name.
var minorWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"en": {}, "for": {}, "if": {}, "in": {}, "nor": {}, "of": {}, "on": {},
	"or": {}, "per": {}, "the": {}, "to": {}, "v.": {}, "vs.": {}, "via": {},
}

// Normalize converts an upstream station name such as "SAN FRANCISCO (GOLDEN GATE)"
// into display form ("San Francisco (Golden Gate)").
// It is deterministic and idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(raw)
	s = strings.ReplaceAll(s, "u.s.", "U.S.")
	// A Caser is stateful, so one is built per call. NoLower keeps the
	// "U.S." fix-up intact; the input is already lower-cased.
	s = cases.Title(language.English, cases.NoLower).String(s)

	words := strings.Split(s, " ")
	first, last := firstWord(words), lastWord(words)
	for i, w := range words {
		if i == first || i == last {
			continue
		}
		if isMinor(w) {
			words[i] = strings.ToLower(w)
		}
	}

	return strings.Join(words, " ")
}

func isMinor(word string) bool {
	_, ok := minorWords[strings.ToLower(strings.Trim(word, "(),;:\"'"))]
	return ok
}

// firstWord and lastWord skip the empty tokens produced by repeated spaces.
func firstWord(words []string) int {
	for i, w := range words {
		if w != "" {
			return i
		}
	}
	return -1
}

func lastWord(words []string) int {
	for i := len(words) - 1; i >= 0; i-- {
		if words[i] != "" {
			return i
		}
	}
	return -1
}
