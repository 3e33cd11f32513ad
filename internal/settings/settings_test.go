package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suykerbuyk/notemeta/internal/archive"
	"github.com/suykerbuyk/notemeta/internal/extract"
	"github.com/suykerbuyk/notemeta/internal/provider"
)

func TestDefaults(t *testing.T) {
	s := Defaults()

	assert.Len(t, s.Providers, 3)
	assert.Equal(t, "siliconflow", s.CurrentProvider)
	assert.True(t, s.IsTruncate)
	assert.Equal(t, 1000, s.MaxTokens)
	assert.Equal(t, extract.HeadOnly, s.TruncateMethod)
	assert.Equal(t, UpdateNoLLM, s.UpdateMethod)
	assert.False(t, s.Force())
	assert.True(t, s.TitleEnabled)
	assert.True(t, s.CategoryEnabled)
	assert.True(t, s.EditTimeEnabled)
	assert.Equal(t, "YYYY-MM-DD HH:mm:ss", s.EditTimeFormat)
	assert.Equal(t, "tags", s.TagsField)
	assert.Equal(t, "created", s.CreatedField)
	assert.NotEmpty(t, s.Categories)
	assert.Empty(t, s.Problems())

	a, b := Defaults(), Defaults()
	a.Categories[0] = "changed"
	a.Providers[0].Models[0].Name = "changed"
	assert.NotEqual(t, a.Categories[0], b.Categories[0], "defaults must not share slices")
	assert.NotEqual(t, a.Providers[0].Models[0].Name, b.Providers[0].Models[0].Name)
}

func TestTruncateLimit(t *testing.T) {
	s := Defaults()
	assert.Equal(t, 1000, s.TruncateLimit())
	s.IsTruncate = false
	assert.Equal(t, -1, s.TruncateLimit())
}

func TestUpgrade_Empty(t *testing.T) {
	for _, raw := range []string{"", "  \n", "{}", "null"} {
		s, migrated, err := Upgrade([]byte(raw))
		require.NoError(t, err, raw)
		assert.False(t, migrated, raw)
		assert.Equal(t, Defaults(), s, raw)
	}
}

func TestUpgrade_InvalidJSON(t *testing.T) {
	_, _, err := Upgrade([]byte(`{"metaMaxTokens": `))
	assert.Error(t, err)
}

func TestUpgrade_OverlaysDefaults(t *testing.T) {
	raw := `{"metaMaxTokens": 200, "metaTitleEnabled": false, "tags": ["go"], "categories": []}`

	s, migrated, err := Upgrade([]byte(raw))
	require.NoError(t, err)
	assert.False(t, migrated)

	assert.Equal(t, 200, s.MaxTokens)
	assert.False(t, s.TitleEnabled)
	assert.Equal(t, []string{"go"}, s.Tags)
	assert.Equal(t, []string{}, s.Categories, "a stored empty list replaces the default list")
	assert.Equal(t, DefaultTagsPrompt, s.TagsPrompt)
	assert.Len(t, s.Providers, 3)
}

func TestUpgrade_ProvidersReplaceDefaults(t *testing.T) {
	raw := `{"llmProviders": [{"id":"mine","name":"Mine","type":"custom","baseUrl":"http://localhost:8080","token":"t","modelName":"m","models":[{"id":"m","name":"M"}],"endpoint":"/v1/chat/completions"}], "currentLLMProvider": "mine"}`

	s, migrated, err := Upgrade([]byte(raw))
	require.NoError(t, err)
	assert.False(t, migrated)
	require.Len(t, s.Providers, 1)
	assert.Equal(t, "mine", s.Providers[0].ID)
	assert.Equal(t, []provider.Model{{ID: "m", Name: "M"}}, s.Providers[0].Models)
}

func TestUpgrade_LegacyOpenRouter(t *testing.T) {
	raw := `{"llmBaseUrl": "https://openrouter.ai/api/v1", "llmToken": "sk-or-123", "llmModelName": "x/y", "metaMaxTokens": 500}`

	s, migrated, err := Upgrade([]byte(raw))
	require.NoError(t, err)
	assert.True(t, migrated)

	assert.Equal(t, "openrouter", s.CurrentProvider)
	require.Len(t, s.Providers, 3)
	p, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "sk-or-123", p.Token)
	assert.Equal(t, "https://openrouter.ai/api", p.BaseURL, "builtin URL is kept")
	assert.Equal(t, "openai/gpt-4o", p.ModelName, "builtin model is kept")
	assert.Equal(t, 500, s.MaxTokens)

	for _, other := range s.Providers {
		if other.ID != p.ID {
			assert.Equal(t, "sk-", other.Token)
		}
	}

	out, err := Marshal(s)
	require.NoError(t, err)
	var keys map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &keys))
	for _, k := range []string{"llmBaseUrl", "llmToken", "llmModelName", "baseUrl", "token", "modelName"} {
		assert.NotContains(t, keys, k)
	}
}

func TestUpgrade_LegacyCustom(t *testing.T) {
	raw := `{"baseUrl": "https://llm.internal.example/v1", "token": "secret", "modelName": "llama-3"}`

	s, migrated, err := Upgrade([]byte(raw))
	require.NoError(t, err)
	assert.True(t, migrated)

	assert.Equal(t, "custom", s.CurrentProvider)
	p, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "https://llm.internal.example/v1", p.BaseURL)
	assert.Equal(t, "llama-3", p.ModelName)
	assert.Equal(t, "secret", p.Token)
	assert.Equal(t, []provider.Model{{ID: "llama-3", Name: "Custom model"}}, p.Models)

	ep, err := provider.Resolve(s.Providers, s.CurrentProvider)
	require.NoError(t, err)
	assert.Equal(t, "https://llm.internal.example/v1/chat/completions", ep.URL)
}

func TestUpgrade_LegacyWithProvidersOnlyDropsKeys(t *testing.T) {
	raw := `{"llmProviders": [{"id":"a","name":"A","type":"custom","baseUrl":"u","token":"t","modelName":"m","models":[{"id":"m","name":"M"}],"endpoint":"/e"}], "currentLLMProvider": "a", "llmToken": "old"}`

	s, migrated, err := Upgrade([]byte(raw))
	require.NoError(t, err)
	assert.True(t, migrated, "stale keys must be persisted away")
	require.Len(t, s.Providers, 1)
	assert.Equal(t, "t", s.Providers[0].Token)
	assert.Equal(t, "a", s.CurrentProvider)
}

func TestUpgrade_Backfill(t *testing.T) {
	raw := `{"llmProviders": [
		{"id":"sf","name":"SF","baseUrl":"https://api.siliconflow.cn","token":"t","modelName":"m","endpoint":"/v1/chat/completions"},
		{"id":"c","name":"C","baseUrl":"http://localhost:1234","token":"t","modelName":"qwen","endpoint":"/v1/chat/completions","models":[]}
	], "currentLLMProvider": "sf"}`

	s, migrated, err := Upgrade([]byte(raw))
	require.NoError(t, err)
	assert.True(t, migrated)

	assert.Equal(t, provider.SiliconFlow, s.Providers[0].Type)
	assert.Equal(t, provider.Catalog(provider.SiliconFlow, ""), s.Providers[0].Models)
	assert.Equal(t, provider.Custom, s.Providers[1].Type)
	assert.Equal(t, []provider.Model{{ID: "qwen", Name: "Custom model"}}, s.Providers[1].Models)

	for _, p := range s.Providers {
		assert.NotEmpty(t, p.Type)
		assert.NotEmpty(t, p.Models)
	}
}

func TestUpgrade_Idempotent(t *testing.T) {
	inputs := map[string]string{
		"empty":  `{}`,
		"legacy": `{"llmBaseUrl": "https://api.siliconflow.cn/v1", "llmToken": "sk-abc", "tags": ["a"], "customMetadata": [{"key":"k","value":"v"}]}`,
		"backfill": `{"llmProviders": [{"id":"x","name":"X","baseUrl":"https://openrouter.ai/api","token":"t","modelName":"m","endpoint":"/v1/chat/completions"}],
			"currentLLMProvider": "x", "llmPrompts": {"p": {"count": 2, "lastAccess": 17}}, "metaDescription": "a <b> & c"}`,
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			first, _, err := Upgrade([]byte(raw))
			require.NoError(t, err)
			once, err := Marshal(first)
			require.NoError(t, err)

			second, migrated, err := Upgrade(once)
			require.NoError(t, err)
			assert.False(t, migrated, "second run must not migrate")

			twice, err := Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(once), string(twice))
		})
	}
}

func TestMarshal_NoHTMLEscape(t *testing.T) {
	s := Defaults()
	s.DescriptionPrompt = "use <summary> & keep it short"
	out, err := Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), "use <summary> & keep it short")
}

func TestLoad_Missing(t *testing.T) {
	s, res, err := Load(filepath.Join(t.TempDir(), "settings.json"), t.TempDir())
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Equal(t, Defaults(), s)
}

func TestLoad_MigratesWithBackup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	backups := filepath.Join(dir, "backups")
	raw := []byte(`{"llmBaseUrl": "https://openrouter.ai/api", "llmToken": "sk-or-xyz"}`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	s, res, err := Load(path, backups)
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Equal(t, "openrouter", s.CurrentProvider)

	require.NotEmpty(t, res.Backup)
	saved, err := archive.Decompress(res.Backup)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(saved))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(onDisk), "llmBaseUrl")

	again, res2, err := Load(path, backups)
	require.NoError(t, err)
	assert.False(t, res2.Migrated)
	assert.Equal(t, s, again)

	snaps, err := archive.List("settings.json", backups)
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0o600))

	_, _, err := Load(path, "")
	assert.Error(t, err)
}

func TestSave_Private(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	require.NoError(t, Save(path, Defaults()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	s, res, err := Load(path, "")
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Equal(t, Defaults(), s)
}

func TestProblems(t *testing.T) {
	s := Defaults()
	s.CurrentProvider = "missing"
	s.MaxTokens = 0
	s.TruncateMethod = "middle_out"
	s.UpdateMethod = "sometimes"
	s.TitleField = " "

	problems := s.Problems()
	assert.Len(t, problems, 5)
	assert.Contains(t, problems, "metaTitleFieldName is empty")
}
