package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.VaultPath != "~/notes" {
		t.Errorf("VaultPath = %q", cfg.VaultPath)
	}
	if cfg.SettingsPath != "" {
		t.Errorf("SettingsPath = %q, want empty", cfg.SettingsPath)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Development {
		t.Error("Log.Development should default to false")
	}
	if cfg.LLM.TimeoutSeconds != 60 {
		t.Errorf("LLM.TimeoutSeconds = %d", cfg.LLM.TimeoutSeconds)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled should default to true")
	}
	if !cfg.Backup.Enabled {
		t.Error("Backup.Enabled should default to true")
	}
}

func TestLoad_NoConfig(t *testing.T) {
	// Point XDG to an empty dir so no config file is found
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if strings.HasPrefix(cfg.VaultPath, "~/") {
		t.Errorf("VaultPath not expanded: %q", cfg.VaultPath)
	}
	if !strings.HasSuffix(cfg.VaultPath, "notes") {
		t.Errorf("VaultPath = %q, want suffix notes", cfg.VaultPath)
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	configDir := filepath.Join(xdg, "notemeta")
	os.MkdirAll(configDir, 0o755)

	tomlContent := `vault_path = "/custom/vault"
settings_path = "/custom/settings.json"

[log]
level = "debug"
file = "/var/log/notemeta.log"
development = true

[llm]
timeout_seconds = 30

[history]
enabled = false
`
	os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(tomlContent), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.VaultPath != "/custom/vault" {
		t.Errorf("VaultPath = %q", cfg.VaultPath)
	}
	if cfg.SettingsFile() != "/custom/settings.json" {
		t.Errorf("SettingsFile = %q", cfg.SettingsFile())
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.LogFile() != "/var/log/notemeta.log" {
		t.Errorf("LogFile = %q", cfg.LogFile())
	}
	if cfg.LLM.TimeoutSeconds != 30 {
		t.Errorf("LLM.TimeoutSeconds = %d", cfg.LLM.TimeoutSeconds)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled should be false")
	}
	if !cfg.Backup.Enabled {
		t.Error("Backup.Enabled should keep its default")
	}
}

func TestLoad_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	configDir := filepath.Join(xdg, "notemeta")
	os.MkdirAll(configDir, 0o755)
	os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(`vault_path = "~/my-vault"
settings_path = "~/s.json"
`), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := filepath.Join(home, "my-vault")
	if cfg.VaultPath != want {
		t.Errorf("VaultPath = %q, want %q", cfg.VaultPath, want)
	}
	if cfg.SettingsPath != filepath.Join(home, "s.json") {
		t.Errorf("SettingsPath = %q", cfg.SettingsPath)
	}
}

func TestLoad_XDGPriority(t *testing.T) {
	xdg := t.TempDir()
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", home)

	xdgDir := filepath.Join(xdg, "notemeta")
	os.MkdirAll(xdgDir, 0o755)
	os.WriteFile(filepath.Join(xdgDir, "config.toml"), []byte(`vault_path = "/from-xdg"`), 0o644)

	homeDir := filepath.Join(home, ".config", "notemeta")
	os.MkdirAll(homeDir, 0o755)
	os.WriteFile(filepath.Join(homeDir, "config.toml"), []byte(`vault_path = "/from-home"`), 0o644)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.VaultPath != "/from-xdg" {
		t.Errorf("VaultPath = %q, want /from-xdg (XDG should take priority)", cfg.VaultPath)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	configDir := filepath.Join(xdg, "notemeta")
	os.MkdirAll(configDir, 0o755)
	os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(`vault_path = [broken`), 0o644)

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestDerivedPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	cfg := Config{VaultPath: "/home/user/vault"}

	if got := cfg.StateDir(); got != "/home/user/vault/.notemeta" {
		t.Errorf("StateDir = %q", got)
	}
	if got := cfg.BackupDir(); got != "/home/user/vault/.notemeta/backups" {
		t.Errorf("BackupDir = %q", got)
	}
	if got := cfg.HistoryPath(); got != "/home/user/vault/.notemeta/history.db" {
		t.Errorf("HistoryPath = %q", got)
	}
	if got := cfg.SettingsFile(); got != filepath.Join(xdg, "notemeta", "settings.json") {
		t.Errorf("SettingsFile = %q", got)
	}
	if got := cfg.LogFile(); got != "/home/user/vault/.notemeta/notemeta.log" {
		t.Errorf("LogFile = %q", got)
	}

	cfg.Log.File = LogFileDisabled
	if got := cfg.LogFile(); got != "" {
		t.Errorf("disabled LogFile = %q, want empty", got)
	}
}
