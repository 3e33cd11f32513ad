// Package extract picks the text to analyze and shortens it to a token
// budget before it is sent to the model.
package extract

import (
	"math"
	"strings"

	"github.com/suykerbuyk/notemeta/internal/tokenize"
)

// Method selects a truncation strategy.
type Method string

const (
	HeadOnly Method = "head_only"
	HeadTail Method = "head_tail"
	Heading  Method = "heading"
)

const (
	// Ellipsis marks text that was cut.
	Ellipsis = "..."

	// PreviewTokens is the budget of the paragraph shown under a heading.
	PreviewTokens = 30

	headShare = 0.8
	tailShare = 0.2
	tailGap   = "\n...\n"
)

// Valid reports whether m names a known method.
func (m Method) Valid() bool {
	switch m {
	case HeadOnly, HeadTail, Heading:
		return true
	}
	return false
}

// Source returns the selection when it holds anything besides whitespace,
// otherwise the full document text.
func Source(full, selection string) string {
	if sel := strings.TrimSpace(selection); sel != "" {
		return sel
	}
	return full
}

// Truncate shortens text to at most limit tokens using method. A limit of
// zero or less disables truncation; text is then only re-tokenized and
// rejoined. Text already within the limit is returned as is. Unknown methods
// behave like HeadOnly.
func Truncate(text string, limit int, method Method) string {
	tokens := tokenize.Split(text)
	if limit <= 0 {
		return tokenize.Join(tokens)
	}
	if len(tokens) <= limit {
		return text
	}

	switch method {
	case HeadTail:
		return headTail(tokens, limit)
	case Heading:
		return outline(text, tokens, limit)
	default:
		return tokenize.Join(tokens[:limit]) + Ellipsis
	}
}

// headTail keeps the first 80% and the last 20% of the budget. The tail
// window is clamped so it never re-reads tokens already in the head.
func headTail(tokens []string, limit int) string {
	left := int(math.Round(float64(limit) * headShare))
	right := int(math.Round(float64(limit) * tailShare))
	if left > len(tokens) {
		left = len(tokens)
	}
	if right > len(tokens)-left {
		right = len(tokens) - left
	}

	head := tokenize.Join(tokens[:left])
	if right <= 0 {
		return head + tailGap
	}
	return head + tailGap + tokenize.Join(tokens[len(tokens)-right:])
}

// outline collects every heading line plus a short preview of the line that
// follows it. When the outline fits the budget, the remaining tokens are
// filled from the start of the body.
func outline(text string, tokens []string, limit int) string {
	var lines []string
	capture := false
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			lines = append(lines, line)
			capture = true
			continue
		}
		if capture {
			lineTokens := tokenize.Split(line)
			if len(lineTokens) > PreviewTokens {
				lineTokens = lineTokens[:PreviewTokens]
			}
			lines = append(lines, tokenize.Join(lineTokens)+Ellipsis)
			capture = false
		}
	}

	joined := strings.Join(lines, "\n")
	outlineTokens := tokenize.Split(joined)
	if len(outlineTokens) > limit {
		return tokenize.Join(outlineTokens[:limit])
	}

	remaining := limit - len(outlineTokens)
	body := tokenize.Join(tokens[:remaining]) + Ellipsis
	return "Outline: \n" + joined + "\n\nBody: " + body
}
