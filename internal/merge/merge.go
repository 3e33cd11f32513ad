// Package merge writes derived values into frontmatter under one of three
// conflict policies.
package merge

import (
	"context"
	"reflect"
	"strings"

	"github.com/suykerbuyk/notemeta/internal/docstore"
	"github.com/suykerbuyk/notemeta/internal/frontmatter"
)

// Policy selects how Apply treats a value already stored under a key.
type Policy int

const (
	// Append concatenates strings and unions lists with the existing value.
	Append Policy = iota
	// Update overwrites the existing value.
	Update
	// KeepIfExisting writes only when the key is absent or empty.
	KeepIfExisting
)

func (p Policy) String() string {
	switch p {
	case Append:
		return "append"
	case Update:
		return "update"
	case KeepIfExisting:
		return "keep"
	}
	return "unknown"
}

// PolicyFor picks the policy for single-valued fields: Update when forced or
// when the current value is empty, KeepIfExisting otherwise.
func PolicyFor(force bool, current any) Policy {
	if force || IsEmpty(current) {
		return Update
	}
	return KeepIfExisting
}

// IsEmpty reports whether v counts as missing: nil, a blank string or an
// empty list.
func IsEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

// Apply writes value under key according to policy and reports whether fm
// changed. A nil value is never written.
func Apply(fm frontmatter.Map, key string, value any, policy Policy) bool {
	value = normalize(value)
	if value == nil {
		return false
	}
	old, present := fm[key]

	var next any
	switch policy {
	case Append:
		var ok bool
		if next, ok = appendValue(old, value); !ok {
			return false
		}
	case Update:
		next = value
	case KeepIfExisting:
		if present && !IsEmpty(old) {
			return false
		}
		next = value
	default:
		return false
	}

	if present && reflect.DeepEqual(old, next) {
		return false
	}
	fm[key] = next
	return true
}

func appendValue(old, value any) (any, bool) {
	switch v := value.(type) {
	case string:
		if s, ok := old.(string); ok {
			return s + v, true
		}
		return v, true
	case []any:
		base, _ := old.([]any)
		return union(base, v), true
	}
	return nil, false
}

// union returns a then the members of b not already present, without
// duplicates. Neither input is modified.
func union(a, b []any) []any {
	out := make([]any, 0, len(a)+len(b))
	for _, list := range [][]any{a, b} {
		for _, item := range list {
			if !contains(out, item) {
				out = append(out, item)
			}
		}
	}
	return out
}

func contains(list []any, item any) bool {
	for _, x := range list {
		if reflect.DeepEqual(x, item) {
			return true
		}
	}
	return false
}

// normalize converts []string to the []any shape YAML decoding produces.
func normalize(value any) any {
	if list, ok := value.([]string); ok {
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	}
	return value
}

// Merger applies values to one stored document.
type Merger struct {
	Store docstore.Store
	Path  string
}

// Apply performs exactly one MutateFrontmatter call and reports whether the
// frontmatter changed.
func (m Merger) Apply(ctx context.Context, key string, value any, policy Policy) (bool, error) {
	var changed bool
	err := m.Store.MutateFrontmatter(ctx, m.Path, func(fm frontmatter.Map) error {
		changed = Apply(fm, key, value, policy)
		return nil
	})
	return changed, err
}
