// Package frontmatter reads and rewrites the YAML block delimited by "---"
// lines at the top of a markdown document. Rewrites keep the document body
// byte-for-byte, keep existing keys in their original order, and keep the
// original YAML text of values that did not change.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrNotMapping is returned when the frontmatter block is valid YAML but not
// a key/value mapping.
var ErrNotMapping = errors.New("frontmatter is not a mapping")

// Map holds frontmatter values as YAML decodes them: strings, []any, bools,
// numbers and nested maps.
type Map map[string]any

// Clone returns a shallow copy of m. Lists are copied so that appends to the
// clone never alias m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		if list, ok := v.([]any); ok {
			v = append([]any(nil), list...)
		}
		out[k] = v
	}
	return out
}

// Document is a parsed markdown file.
type Document struct {
	Fields Map
	Body   string

	// HasBlock reports whether the source carried a frontmatter block.
	HasBlock bool

	order    []string
	keyNodes map[string]*yaml.Node
	valNodes map[string]*yaml.Node
	original Map
}

// Parse splits content into frontmatter and body. Content without a
// leading "---" block parses to an empty Map with Body == content.
func Parse(content string) (*Document, error) {
	doc := &Document{
		Fields:   Map{},
		keyNodes: map[string]*yaml.Node{},
		valNodes: map[string]*yaml.Node{},
		original: Map{},
	}

	block, body, ok := split(content)
	if !ok {
		doc.Body = content
		return doc, nil
	}
	doc.HasBlock = true
	doc.Body = body

	if strings.TrimSpace(block) == "" {
		return doc, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(block), &root); err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	if len(root.Content) == 0 {
		return doc, nil
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valNode := mapping.Content[i], mapping.Content[i+1]
		key := keyNode.Value

		var v, orig any
		if err := valNode.Decode(&v); err != nil {
			return nil, fmt.Errorf("parse frontmatter key %q: %w", key, err)
		}
		if err := valNode.Decode(&orig); err != nil {
			return nil, fmt.Errorf("parse frontmatter key %q: %w", key, err)
		}

		if _, seen := doc.Fields[key]; !seen {
			doc.order = append(doc.order, key)
		}
		doc.Fields[key] = v
		doc.original[key] = orig
		doc.keyNodes[key] = keyNode
		doc.valNodes[key] = valNode
	}

	return doc, nil
}

// split returns the text between the opening and closing delimiter lines and
// everything after the closing line.
func split(content string) (block, body string, ok bool) {
	nl := strings.IndexByte(content, '\n')
	if nl < 0 || strings.TrimRight(content[:nl], "\r") != delimiter {
		return "", content, false
	}

	start := nl + 1
	pos := start
	for pos <= len(content) {
		end := strings.IndexByte(content[pos:], '\n')
		line, next := content[pos:], len(content)
		if end >= 0 {
			line, next = content[pos:pos+end], pos+end+1
		}
		if strings.TrimRight(line, "\r") == delimiter {
			return content[start:pos], content[next:], true
		}
		if end < 0 {
			break
		}
		pos = next
	}
	return "", content, false
}

// Keys returns the keys Render will write: surviving original keys in their
// original order, then new keys sorted.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.Fields))
	known := make(map[string]bool, len(d.order))
	for _, k := range d.order {
		known[k] = true
		if _, ok := d.Fields[k]; ok {
			keys = append(keys, k)
		}
	}
	var added []string
	for k := range d.Fields {
		if !known[k] {
			added = append(added, k)
		}
	}
	sort.Strings(added)
	return append(keys, added...)
}

// Render serializes the document. A document that had no frontmatter and
// still has no fields renders as its body alone.
func (d *Document) Render() (string, error) {
	keys := d.Keys()
	if !d.HasBlock && len(keys) == 0 {
		return d.Body, nil
	}

	var b strings.Builder
	b.WriteString(delimiter + "\n")

	if len(keys) > 0 {
		mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			keyNode, valNode, err := d.nodesFor(k)
			if err != nil {
				return "", err
			}
			mapping.Content = append(mapping.Content, keyNode, valNode)
		}

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(mapping); err != nil {
			return "", fmt.Errorf("encode frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return "", fmt.Errorf("encode frontmatter: %w", err)
		}
		b.Write(buf.Bytes())
	}

	b.WriteString(delimiter + "\n")
	b.WriteString(d.Body)
	return b.String(), nil
}

func (d *Document) nodesFor(key string) (*yaml.Node, *yaml.Node, error) {
	v := d.Fields[key]

	keyNode, ok := d.keyNodes[key]
	if !ok {
		keyNode = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	}

	if orig, ok := d.valNodes[key]; ok && reflect.DeepEqual(d.original[key], v) {
		return keyNode, orig, nil
	}

	valNode := &yaml.Node{}
	if err := valNode.Encode(v); err != nil {
		return nil, nil, fmt.Errorf("encode frontmatter key %q: %w", key, err)
	}
	return keyNode, valNode, nil
}
