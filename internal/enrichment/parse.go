package enrichment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse pulls the derived fields out of a model reply. Backticks are
// removed first so fenced JSON is handled, then the span from the first "{"
// to the last "}" is decoded. A reply without such a span yields empty
// Fields and no error; a span that fails to decode wraps ErrMalformedReply.
func Parse(raw string) (Fields, error) {
	text := strings.ReplaceAll(raw, "`", "")

	span, ok := jsonSpan(text)
	if !ok {
		return Fields{}, nil
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil {
		return Fields{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	var f Fields
	f.Tags = parseTags(obj["tags"])
	f.Category = stringField(obj["category"])
	f.Description = stringField(obj["description"])
	f.Title = unquote(stringField(obj["title"]))
	return f, nil
}

func jsonSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || start > end {
		return "", false
	}
	return text[start : end+1], true
}

// parseTags accepts the contract form "a,b,c" and, leniently, a JSON array
// of strings.
func parseTags(v any) []string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	default:
		return nil
	}

	var tags []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
