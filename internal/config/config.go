package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all notemeta configuration.
type Config struct {
	VaultPath    string `toml:"vault_path"`
	SettingsPath string `toml:"settings_path"`

	Log     LogConfig     `toml:"log"`
	LLM     LLMConfig     `toml:"llm"`
	History HistoryConfig `toml:"history"`
	Backup  BackupConfig  `toml:"backup"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	File        string `toml:"file"`
	Development bool   `toml:"development"`
}

// LLMConfig carries CLI-side request settings. Provider selection and
// prompts live in the settings file, not here.
type LLMConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

type BackupConfig struct {
	Enabled bool `toml:"enabled"`
}

// LogFileDisabled as log.file turns off the file sink.
const LogFileDisabled = "-"

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		VaultPath: "~/notes",
		Log: LogConfig{
			Level: "info",
		},
		LLM: LLMConfig{
			TimeoutSeconds: 60,
		},
		History: HistoryConfig{Enabled: true},
		Backup:  BackupConfig{Enabled: true},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	paths := configPaths()
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if _, err := toml.DecodeFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			break
		}
	}

	// Expand ~ in paths
	cfg.VaultPath = expandHome(cfg.VaultPath)
	cfg.SettingsPath = expandHome(cfg.SettingsPath)
	if cfg.Log.File != LogFileDisabled {
		cfg.Log.File = expandHome(cfg.Log.File)
	}

	return cfg, nil
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "notemeta", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "notemeta", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// StateDir returns the .notemeta state directory inside the vault.
func (c Config) StateDir() string {
	return filepath.Join(c.VaultPath, ".notemeta")
}

// BackupDir holds zstd snapshots of documents and settings records.
func (c Config) BackupDir() string {
	return filepath.Join(c.StateDir(), "backups")
}

func (c Config) HistoryPath() string {
	return filepath.Join(c.StateDir(), "history.db")
}

// SettingsFile returns settings_path, or settings.json in the config dir.
func (c Config) SettingsFile() string {
	if c.SettingsPath != "" {
		return c.SettingsPath
	}
	return filepath.Join(ConfigDir(), "settings.json")
}

// LogFile returns the log file path, or "" when the file sink is disabled.
func (c Config) LogFile() string {
	switch c.Log.File {
	case LogFileDisabled:
		return ""
	case "":
		return filepath.Join(c.StateDir(), "notemeta.log")
	}
	return c.Log.File
}
