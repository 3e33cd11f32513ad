// Package provider describes the configured LLM backends and turns the
// selected one into a concrete chat-completions endpoint.
package provider

import (
	"errors"
	"strings"
)

// Type identifies a provider family.
type Type string

const (
	SiliconFlow Type = "siliconflow"
	OpenRouter  Type = "openrouter"
	Custom      Type = "custom"
)

// DefaultEndpoint is the chat path appended to a provider base URL.
const DefaultEndpoint = "/v1/chat/completions"

// ErrNoProviderSelected is returned when the current provider id does not
// match any configured provider.
var ErrNoProviderSelected = errors.New("no LLM provider selected")

// Model is one entry of a provider's model catalog.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Provider is a configured LLM backend.
type Provider struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Type      Type    `json:"type,omitempty"`
	BaseURL   string  `json:"baseUrl"`
	Token     string  `json:"token"`
	ModelName string  `json:"modelName"`
	Models    []Model `json:"models,omitempty"`
	Endpoint  string  `json:"endpoint"`
}

var (
	siliconFlowModels = []Model{
		{ID: "Pro/deepseek-ai/DeepSeek-R1", Name: "DeepSeek-R1"},
		{ID: "Pro/deepseek-ai/DeepSeek-V3", Name: "Deepseek-V3"},
		{ID: "Qwen/QwQ-32B", Name: "Qwen"},
	}
	openRouterModels = []Model{
		{ID: "openai/o1", Name: "OpenAI: o1"},
		{ID: "openai/chatgpt-4o-latest", Name: "ChatGPT-4o"},
		{ID: "anthropic/claude-3.7-sonnet", Name: "claude-3.7-sonnet"},
		{ID: "google/gemini-2.0-flash-001", Name: "Gemini Flash 2.0"},
	}
)

// keywords maps URL substrings to provider types. Order matters: the first
// match wins.
var keywords = []struct {
	needle string
	typ    Type
}{
	{"siliconflow", SiliconFlow},
	{"openrouter", OpenRouter},
}

// Classify guesses the provider type from a base URL.
func Classify(url string) Type {
	lower := strings.ToLower(url)
	for _, k := range keywords {
		if strings.Contains(lower, k.needle) {
			return k.typ
		}
	}
	return Custom
}

// Catalog returns a copy of the built-in model list for t. Custom providers
// get a single synthetic model named after modelName.
func Catalog(t Type, modelName string) []Model {
	switch t {
	case SiliconFlow:
		return append([]Model(nil), siliconFlowModels...)
	case OpenRouter:
		return append([]Model(nil), openRouterModels...)
	}
	if modelName == "" {
		modelName = "custom-model"
	}
	return []Model{{ID: modelName, Name: "Custom model"}}
}

// Defaults returns the three providers every fresh settings record starts with.
func Defaults() []Provider {
	return []Provider{
		{
			ID:        "siliconflow",
			Name:      "SiliconFlow",
			Type:      SiliconFlow,
			BaseURL:   "https://api.siliconflow.cn",
			Token:     "sk-",
			ModelName: "deepseek-r1",
			Models:    Catalog(SiliconFlow, ""),
			Endpoint:  DefaultEndpoint,
		},
		{
			ID:        "openrouter",
			Name:      "OpenRouter",
			Type:      OpenRouter,
			BaseURL:   "https://openrouter.ai/api",
			Token:     "sk-",
			ModelName: "openai/gpt-4o",
			Models:    Catalog(OpenRouter, ""),
			Endpoint:  DefaultEndpoint,
		},
		{
			ID:        "custom",
			Name:      "Custom",
			Type:      Custom,
			BaseURL:   "https://api.example.com",
			Token:     "sk-",
			ModelName: "custom-model",
			Models:    Catalog(Custom, "custom-model"),
			Endpoint:  DefaultEndpoint,
		},
	}
}

// Find returns the provider with the given id.
func Find(list []Provider, id string) (Provider, bool) {
	for _, p := range list {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}
