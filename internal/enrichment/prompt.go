package enrichment

import (
	"fmt"
	"strings"
)

// PromptInput holds what the synthesis prompt is built from.
type PromptInput struct {
	Content string

	TagsPrompt string
	Tags       []string // candidate tags offered to the model

	DescriptionPrompt string

	TitleEnabled bool
	TitlePrompt  string

	CategoryEnabled bool
	CategoryPrompt  string
	Categories      []string
}

// BuildPrompt renders the single user message sent to the model. The reply
// contract is a JSON object with string fields tags, description, and
// (when enabled) title and category.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	wanted := []string{"tags", "description"}
	if in.TitleEnabled {
		wanted = append(wanted, "title")
	}
	if in.CategoryEnabled {
		wanted = append(wanted, "category")
	}
	fmt.Fprintf(&b, "I need to generate %s for the following article. Requirements:\n\n", listWords(wanted))

	n := 1
	fmt.Fprintf(&b, "%d. Tags: %s\n", n, in.TagsPrompt)
	fmt.Fprintf(&b, "   Available tags: %s. Feel free to create new ones if none are suitable.\n\n", strings.Join(in.Tags, ","))
	n++

	fmt.Fprintf(&b, "%d. Description: %s\n\n", n, in.DescriptionPrompt)
	n++

	if in.TitleEnabled {
		fmt.Fprintf(&b, "%d. Title: %s\n\n", n, in.TitlePrompt)
		n++
	}

	if in.CategoryEnabled {
		fmt.Fprintf(&b, "%d. Category: %s\n", n, in.CategoryPrompt)
		fmt.Fprintf(&b, "   Available categories: %s. Choose exactly one.\n\n", strings.Join(in.Categories, ","))
	}

	b.WriteString("Please return in the following JSON format:\n{\n")
	example := []string{
		`    "tags": "tag1,tag2,tag3"`,
		`    "description": "brief summary"`,
	}
	if in.TitleEnabled {
		example = append(example, `    "title": "article title"`)
	}
	if in.CategoryEnabled {
		example = append(example, `    "category": "category name"`)
	}
	b.WriteString(strings.Join(example, ",\n"))
	b.WriteString("\n}\n\nArticle content:\n\n")
	b.WriteString(in.Content)

	return b.String()
}

// listWords renders ["a","b","c"] as "a, b, and c".
func listWords(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	case 2:
		return words[0] + " and " + words[1]
	}
	return strings.Join(words[:len(words)-1], ", ") + ", and " + words[len(words)-1]
}
