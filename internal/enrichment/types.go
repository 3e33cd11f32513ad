package enrichment

import (
	"errors"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrNetwork covers transport failures and non-2xx replies.
	ErrNetwork = errors.New("LLM request failed")

	// ErrMalformedReply means the reply held a {...} span that is not valid JSON.
	ErrMalformedReply = errors.New("malformed LLM reply")
)

// Fields holds the metadata the model derived from a document. Every field
// is optional; zero values mean "not provided".
type Fields struct {
	Tags        []string
	Category    string
	Description string
	Title       string
}

// Empty reports whether no field was provided.
func (f Fields) Empty() bool {
	return len(f.Tags) == 0 && f.Category == "" && f.Description == "" && f.Title == ""
}

// Wire types for OpenAI-compatible chat completions.
type (
	chatRequest  = openai.ChatCompletionRequest
	chatMessage  = openai.ChatCompletionMessage
	chatResponse = openai.ChatCompletionResponse
	errorReply   = openai.ErrorResponse
)
