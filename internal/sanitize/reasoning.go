package sanitize

import (
	"regexp"
	"strings"
)

// reasoningBlock matches the scratchpad some reasoning models prepend to
// their answer. Braces inside it would confuse JSON extraction.
var reasoningBlock = regexp.MustCompile(`(?is)<(think|thinking|reasoning)>.*?</(?:think|thinking|reasoning)>`)

// strayTag catches an unterminated opening tag or a lone closing tag.
var strayTag = regexp.MustCompile(`(?i)</?(?:think|thinking|reasoning)>`)

// StripReasoning removes reasoning blocks from a model reply. An opening
// tag with no closing tag drops everything up to the next "{" so a cut-off
// scratchpad still leaves the answer readable.
func StripReasoning(text string) string {
	text = reasoningBlock.ReplaceAllString(text, "")
	if loc := strayTag.FindStringIndex(text); loc != nil && !strings.HasPrefix(text[loc[0]:], "</") {
		rest := text[loc[1]:]
		if i := strings.Index(rest, "{"); i >= 0 {
			text = text[:loc[0]] + rest[i:]
		}
	}
	return strings.TrimSpace(strayTag.ReplaceAllString(text, ""))
}
