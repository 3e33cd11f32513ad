package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suykerbuyk/notemeta/internal/frontmatter"
)

// Memory is an in-process Store keyed by path.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]memDoc
	mutates int
}

type memDoc struct {
	content string
	created time.Time
	updated time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{docs: map[string]memDoc{}}
}

// Put stores content at path with the given creation time.
func (m *Memory) Put(path, content string, created time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = memDoc{content: content, created: created, updated: created}
}

// Content returns the stored text at path.
func (m *Memory) Content(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[path]
	return d.content, ok
}

// Mutations counts MutateFrontmatter calls.
func (m *Memory) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutates
}

func (m *Memory) Open(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	d, ok := m.docs[path]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	doc, err := frontmatter.Parse(d.content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Document{
		Path:     path,
		Text:     d.content,
		Fields:   doc.Fields,
		Created:  d.created,
		Modified: d.updated,
	}, nil
}

func (m *Memory) ReadFrontmatter(ctx context.Context, path string) (frontmatter.Map, error) {
	doc, err := m.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return doc.Fields, nil
}

func (m *Memory) MutateFrontmatter(ctx context.Context, path string, fn func(frontmatter.Map) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutates++

	d, ok := m.docs[path]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	out, changed, err := mutate(d.content, fn)
	if err != nil || !changed {
		return err
	}
	d.content = out
	d.updated = time.Now()
	m.docs[path] = d
	return nil
}
