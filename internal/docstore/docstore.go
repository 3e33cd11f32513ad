// Package docstore gives the enrichment pipeline read access to a markdown
// document and a single read-modify-write primitive for its frontmatter.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/suykerbuyk/notemeta/internal/atomicfile"
	"github.com/suykerbuyk/notemeta/internal/frontmatter"
)

// ErrNotFound is returned for a path that does not name a document.
var ErrNotFound = errors.New("document not found")

// Document is a snapshot of a stored document.
type Document struct {
	Path string

	// Text is the full document content, frontmatter included.
	Text string

	Fields   frontmatter.Map
	Created  time.Time
	Modified time.Time
}

// Store is the document access the pipeline depends on.
type Store interface {
	Open(ctx context.Context, path string) (*Document, error)

	ReadFrontmatter(ctx context.Context, path string) (frontmatter.Map, error)

	// MutateFrontmatter reads the current frontmatter, passes it to fn and
	// writes the result back. Nothing is written when fn returns an error or
	// leaves the frontmatter unchanged.
	MutateFrontmatter(ctx context.Context, path string, fn func(frontmatter.Map) error) error
}

// File stores documents on the local filesystem.
type File struct{}

func (File) Open(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := frontmatter.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Document{
		Path:     path,
		Text:     string(data),
		Fields:   doc.Fields,
		Created:  info.ModTime(),
		Modified: info.ModTime(),
	}, nil
}

func (f File) ReadFrontmatter(ctx context.Context, path string) (frontmatter.Map, error) {
	doc, err := f.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return doc.Fields, nil
}

func (File) MutateFrontmatter(ctx context.Context, path string, fn func(frontmatter.Map) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	out, changed, err := mutate(string(data), fn)
	if err != nil || !changed {
		return err
	}

	if err := atomicfile.Write(path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// mutate applies fn to the frontmatter of content and renders the result.
func mutate(content string, fn func(frontmatter.Map) error) (string, bool, error) {
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return "", false, err
	}

	if err := fn(doc.Fields); err != nil {
		return "", false, err
	}

	before, _ := frontmatter.Parse(content)
	if reflect.DeepEqual(before.Fields, doc.Fields) {
		return content, false, nil
	}

	out, err := doc.Render()
	if err != nil {
		return "", false, err
	}
	return out, true, nil
}
