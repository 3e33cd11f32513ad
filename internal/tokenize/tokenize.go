// Package tokenize splits text into budget units: single CJK ideographs,
// ASCII alphanumeric runs, a fixed punctuation set, and newlines.
package tokenize

import (
	"regexp"
	"strings"
)

// Newline is the token emitted for a line break.
const Newline = "\n"

var (
	tokenPattern = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]|[a-zA-Z0-9]+|[.,!?;，。！？；#]|\n`)
	tightPattern = regexp.MustCompile(`^(?:[\x{4e00}-\x{9fa5}]|[.,!?;，。！？；#])$`)
)

// Split returns the tokens of text in order. Characters outside the token
// classes (spaces, tabs, other symbols) are dropped.
func Split(text string) []string {
	tokens := tokenPattern.FindAllString(text, -1)
	if tokens == nil {
		return []string{}
	}
	return tokens
}

// Count returns len(Split(text)) without keeping the slice around.
func Count(text string) int {
	return len(tokenPattern.FindAllStringIndex(text, -1))
}

// Join rebuilds text from tokens. CJK and punctuation tokens are glued to
// their neighbours, alphanumeric tokens get a single leading space unless
// they come first, and newlines pass through. The result is trimmed.
func Join(tokens []string) string {
	var b strings.Builder
	for i, tok := range tokens {
		switch {
		case tok == Newline:
			b.WriteString(tok)
		case tightPattern.MatchString(tok):
			b.WriteString(tok)
		default:
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(tok)
		}
	}
	return strings.TrimSpace(b.String())
}
