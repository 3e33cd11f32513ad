package settings

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/suykerbuyk/notemeta/internal/provider"
)

// Root-level keys of the single-provider record shape. The short forms were
// written by early releases.
var (
	legacyBaseURLKeys = []string{"llmBaseUrl", "baseUrl"}
	legacyTokenKeys   = []string{"llmToken", "token"}
	legacyModelKeys   = []string{"llmModelName", "modelName"}
)

type legacy struct {
	found     bool
	baseURL   string
	token     string
	modelName string
}

// Upgrade decodes a stored record over Defaults and brings it to the
// current shape. didMigrate is true when the stored bytes are stale: legacy
// single-provider keys were folded into the provider list, or a provider
// was missing its type or model catalog. Legacy keys are never written
// back. Upgrading the marshaled result again reports false and yields
// identical bytes.
func Upgrade(raw []byte) (s Settings, didMigrate bool, err error) {
	s = Defaults()
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, false, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Defaults(), false, fmt.Errorf("parse settings: %w", err)
	}

	// Lists and maps present in the record replace the defaults instead of
	// being merged into them.
	if _, ok := fields["llmProviders"]; ok {
		s.Providers = nil
	}
	if _, ok := fields["llmPrompts"]; ok {
		s.Prompts = nil
	}
	if _, ok := fields["tags"]; ok {
		s.Tags = nil
	}
	if _, ok := fields["selectExcludedFolders"]; ok {
		s.ExcludedFolders = nil
	}
	if _, ok := fields["customMetadata"]; ok {
		s.CustomMetadata = nil
	}
	if _, ok := fields["categories"]; ok {
		s.Categories = nil
	}

	if err := json.Unmarshal(raw, &s); err != nil {
		return Defaults(), false, fmt.Errorf("decode settings: %w", err)
	}
	normalize(&s)

	old := readLegacy(fields)
	if old.found {
		didMigrate = true
		if len(s.Providers) == 0 {
			seedFromLegacy(&s, old)
		}
	}

	if backfill(s.Providers) {
		didMigrate = true
	}

	return s, didMigrate, nil
}

func readLegacy(fields map[string]json.RawMessage) legacy {
	var l legacy
	pick := func(keys []string) string {
		for _, k := range keys {
			raw, ok := fields[k]
			if !ok {
				continue
			}
			l.found = true
			var v string
			if json.Unmarshal(raw, &v) == nil && v != "" {
				return v
			}
		}
		return ""
	}
	l.baseURL = pick(legacyBaseURLKeys)
	l.token = pick(legacyTokenKeys)
	l.modelName = pick(legacyModelKeys)
	return l
}

// seedFromLegacy installs the default providers and moves the legacy
// connection onto the one its base URL belongs to.
func seedFromLegacy(s *Settings, l legacy) {
	s.Providers = provider.Defaults()
	target := provider.Classify(l.baseURL)

	for i := range s.Providers {
		p := &s.Providers[i]
		if p.Type != target {
			continue
		}
		if target == provider.Custom {
			if l.baseURL != "" {
				p.BaseURL = l.baseURL
			}
			if l.modelName != "" {
				p.ModelName = l.modelName
				p.Models = provider.Catalog(provider.Custom, l.modelName)
			}
		}
		if l.token != "" {
			p.Token = l.token
		}
		s.CurrentProvider = p.ID
		return
	}
}

// backfill fills in a missing type and model catalog on every provider and
// reports whether anything changed.
func backfill(list []provider.Provider) bool {
	changed := false
	for i := range list {
		p := &list[i]
		if p.Type == "" {
			p.Type = provider.Classify(p.BaseURL)
			changed = true
		}
		if len(p.Models) == 0 {
			p.Models = provider.Catalog(p.Type, p.ModelName)
			changed = true
		}
	}
	return changed
}

// normalize replaces null lists and maps with empty ones.
func normalize(s *Settings) {
	if s.Providers == nil {
		s.Providers = []provider.Provider{}
	}
	if s.Prompts == nil {
		s.Prompts = map[string]PromptUsage{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.ExcludedFolders == nil {
		s.ExcludedFolders = []string{}
	}
	if s.CustomMetadata == nil {
		s.CustomMetadata = []CustomField{}
	}
	if s.Categories == nil {
		s.Categories = []string{}
	}
}
