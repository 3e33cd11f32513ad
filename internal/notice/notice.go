// Package notice delivers short, transient user-facing messages. Notices are
// printed and forgotten; nothing is persisted.
package notice

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "info"
}

// Message catalog.
const (
	PleaseOpenFile      = "Please open a file first"
	NotMarkdown         = "The current file is not a markdown file"
	LLMLoading          = "LLM is thinking..."
	LLMError            = "An error occurred, please try again later"
	ParseError          = "Failed to parse the returned result"
	MetaUpdated         = "Meta data updated"
	NoProviderSelected  = "No LLM provider selected"
	TimeMetadataFailure = "Failed to update time metadata"
)

type Notifier interface {
	Notify(level Level, msg string)
}

// Console writes colored notices to an io.Writer, stderr by default.
type Console struct {
	out io.Writer
	mu  sync.Mutex
}

func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stderr
	}
	return &Console{out: out}
}

func (c *Console) Notify(level Level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	colorFor(level).Fprintln(c.out, msg)
}

func colorFor(level Level) *color.Color {
	switch level {
	case Success:
		return color.New(color.FgGreen)
	case Warning:
		return color.New(color.FgYellow)
	case Error:
		return color.New(color.FgRed, color.Bold)
	}
	return color.New(color.FgHiBlack)
}

// Entry is one recorded notice.
type Entry struct {
	Level   Level
	Message string
}

func (e Entry) String() string {
	return fmt.Sprintf("%s: %s", e.Level, e.Message)
}

// Recorder keeps notices in memory.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Notify(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Message: msg})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.entries...)
}

// Messages returns the recorded message texts in order.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Message
	}
	return out
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Level, string) {}
