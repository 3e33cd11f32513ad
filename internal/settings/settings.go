// Package settings holds the enrichment settings record: providers, prompts,
// truncation, field names and candidate lists. The JSON shape is shared with
// other clients of the same record, so keys keep their camelCase names.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suykerbuyk/notemeta/internal/extract"
	"github.com/suykerbuyk/notemeta/internal/provider"
)

// UpdateMethod decides whether existing single-valued fields are replaced.
type UpdateMethod string

const (
	UpdateForce UpdateMethod = "force"
	UpdateNoLLM UpdateMethod = "no-llm"
)

const (
	DefaultTagsPrompt     = "Please extract up to three tags based on the following article content, and in the same language as the content."
	DefaultSummaryPrompt  = "Summarize the core content of the article directly without using phrases like 'this article.' The summary should be no more than 50 words, and in the same language as the content."
	DefaultTitlePrompt    = "Please generate a concise and clear title for this document, no more than 10 words, and do not use quotes."
	DefaultCategoryPrompt = "Please choose a suitable category for this document."
	DefaultEditTimeFormat = "YYYY-MM-DD HH:mm:ss"
)

// CustomField is a user-defined key/value pair written to every document.
type CustomField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PromptUsage is carried for records written by other clients.
type PromptUsage struct {
	Count      int   `json:"count"`
	LastAccess int64 `json:"lastAccess"`
}

// Settings is the enrichment settings record as stored in settings.json.
type Settings struct {
	Providers       []provider.Provider    `json:"llmProviders"`
	CurrentProvider string                 `json:"currentLLMProvider"`
	Prompts         map[string]PromptUsage `json:"llmPrompts"`
	DialogEdit      bool                   `json:"llmDialogEdit"`

	Tags []string `json:"tags"`

	IsTruncate     bool           `json:"metaIsTruncate"`
	MaxTokens      int            `json:"metaMaxTokens"`
	TruncateMethod extract.Method `json:"metaTruncateMethod"`
	UpdateMethod   UpdateMethod   `json:"metaUpdateMethod"`

	DescriptionPrompt string `json:"metaDescription"`
	TitleEnabled      bool   `json:"metaTitleEnabled"`
	TitlePrompt       string `json:"metaTitlePrompt"`
	EditTimeEnabled   bool   `json:"metaEditTimeEnabled"`
	EditTimeFormat    string `json:"metaEditTimeFormat"`

	ExcludedFolders []string `json:"selectExcludedFolders"`

	TagsField        string `json:"metaTagsFieldName"`
	DescriptionField string `json:"metaDescriptionFieldName"`
	TitleField       string `json:"metaTitleFieldName"`
	UpdatedField     string `json:"metaUpdatedFieldName"`
	CreatedField     string `json:"metaCreatedFieldName"`

	TagsPrompt     string        `json:"metaTagsPrompt"`
	CustomMetadata []CustomField `json:"customMetadata"`

	CategoryField   string   `json:"metaCategoryFieldName"`
	Categories      []string `json:"categories"`
	CategoryPrompt  string   `json:"metaCategoryPrompt"`
	CategoryEnabled bool     `json:"metaCategoryEnabled"`
}

var defaultCategories = []string{
	"Travel", "Shopping", "Mood", "Reading notes", "Knowledge & tech",
	"Entertainment", "Papers to read", "Ideas", "Todo", "Methodology",
	"Work thoughts", "Investing", "Books to read", "Personal info",
	"Bookkeeping", "Health", "Excerpts", "Daily life", "Worldview", "Food",
}

// Defaults returns a fresh settings record.
func Defaults() Settings {
	return Settings{
		Providers:       provider.Defaults(),
		CurrentProvider: "siliconflow",
		Prompts:         map[string]PromptUsage{},
		Tags:            []string{},

		IsTruncate:     true,
		MaxTokens:      1000,
		TruncateMethod: extract.HeadOnly,
		UpdateMethod:   UpdateNoLLM,

		DescriptionPrompt: DefaultSummaryPrompt,
		TitleEnabled:      true,
		TitlePrompt:       DefaultTitlePrompt,
		EditTimeEnabled:   true,
		EditTimeFormat:    DefaultEditTimeFormat,

		ExcludedFolders: []string{},

		TagsField:        "tags",
		DescriptionField: "description",
		TitleField:       "title",
		UpdatedField:     "updated",
		CreatedField:     "created",

		TagsPrompt:     DefaultTagsPrompt,
		CustomMetadata: []CustomField{},

		CategoryField:   "category",
		Categories:      append([]string(nil), defaultCategories...),
		CategoryPrompt:  DefaultCategoryPrompt,
		CategoryEnabled: true,
	}
}

// Force reports whether the record asks for existing fields to be replaced.
func (s Settings) Force() bool {
	return s.UpdateMethod == UpdateForce
}

// TruncateLimit returns the token budget for extraction, or -1 when
// truncation is off.
func (s Settings) TruncateLimit() int {
	if !s.IsTruncate {
		return -1
	}
	return s.MaxTokens
}

// Current returns the selected provider.
func (s Settings) Current() (provider.Provider, bool) {
	return provider.Find(s.Providers, s.CurrentProvider)
}

// Problems lists settings that will make enrichment misbehave. An empty
// result means the record is usable.
func (s Settings) Problems() []string {
	var out []string
	if _, ok := s.Current(); !ok {
		out = append(out, fmt.Sprintf("current provider %q is not configured", s.CurrentProvider))
	}
	if s.IsTruncate && s.MaxTokens <= 0 {
		out = append(out, fmt.Sprintf("metaMaxTokens is %d; truncation will be skipped", s.MaxTokens))
	}
	if s.IsTruncate && !s.TruncateMethod.Valid() {
		out = append(out, fmt.Sprintf("unknown truncation method %q; head_only will be used", s.TruncateMethod))
	}
	if s.UpdateMethod != UpdateForce && s.UpdateMethod != UpdateNoLLM {
		out = append(out, fmt.Sprintf("unknown update method %q; existing fields will be kept", s.UpdateMethod))
	}
	for _, f := range []struct{ name, val string }{
		{"metaTagsFieldName", s.TagsField},
		{"metaDescriptionFieldName", s.DescriptionField},
		{"metaTitleFieldName", s.TitleField},
		{"metaCategoryFieldName", s.CategoryField},
		{"metaUpdatedFieldName", s.UpdatedField},
		{"metaCreatedFieldName", s.CreatedField},
	} {
		if strings.TrimSpace(f.val) == "" {
			out = append(out, f.name+" is empty")
		}
	}
	return out
}

// Marshal renders s as indented JSON with a trailing newline. HTML
// characters in prompts are written as-is.
func Marshal(s Settings) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return buf.Bytes(), nil
}
