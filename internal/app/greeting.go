package app

import (
	"strings"
	"unicode"
)

var greetingWords = []string{
	"hello", "hi", "hey", "howdy", "greetings",
	"good morning", "good afternoon", "good evening",
}

// IsGreeting reports whether free text reads as a salutation. Matching is
// forgiving: case and punctuation are ignored and stretched letters collapse,
// so "Heyyy!!" and "helloooo there" both count.
func IsGreeting(text string) bool {
	norm := normalizeGreeting(text)
	if norm == "" {
		return false
	}
	for _, w := range greetingWords {
		if strings.Contains(norm, normalizeGreeting(w)) {
			return true
		}
	}
	return false
}

func normalizeGreeting(text string) string {
	var b strings.Builder
	var prev rune = -1
	for _, r := range strings.ToLower(text) {
		if !unicode.IsLetter(r) && r != ' ' {
			continue
		}
		if r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return strings.TrimSpace(b.String())
}
