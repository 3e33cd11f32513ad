package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ConfigDir returns the notemeta config directory path.
// Uses $XDG_CONFIG_HOME/notemeta if set, otherwise ~/.config/notemeta.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "notemeta")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "notemeta")
}

var vaultPathLine = regexp.MustCompile(`(?m)^vault_path\s*=.*$`)

// WriteDefault writes a default config.toml pointing to vaultPath.
// An existing file keeps every other setting; only its vault_path line is
// replaced (or prepended when missing). The action is "created", "updated"
// or "unchanged".
func WriteDefault(vaultPath string) (string, string, error) {
	dir := ConfigDir()
	path := filepath.Join(dir, "config.toml")
	line := fmt.Sprintf("vault_path = %q", CompressHome(vaultPath))

	existing, err := os.ReadFile(path)
	if err == nil {
		content := string(existing)
		var updated string
		if vaultPathLine.MatchString(content) {
			updated = vaultPathLine.ReplaceAllLiteralString(content, line)
		} else {
			updated = line + "\n\n" + content
		}
		if updated == content {
			return path, "unchanged", nil
		}
		if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
			return "", "", fmt.Errorf("write config: %w", err)
		}
		return path, "updated", nil
	}
	if !os.IsNotExist(err) {
		return "", "", fmt.Errorf("read config: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create config dir: %w", err)
	}

	content := line + `
# settings_path = "~/.config/notemeta/settings.json"

[log]
level = "info"
# file = "-" disables the log file; empty means <vault>/.notemeta/notemeta.log
file = ""
development = false

[llm]
timeout_seconds = 60

[history]
enabled = true

[backup]
enabled = true
`

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", "", fmt.Errorf("write config: %w", err)
	}

	return path, "created", nil
}

// CompressHome replaces $HOME prefix with ~/ for portable config values.
func CompressHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home+"/") {
		return "~/" + path[len(home)+1:]
	}
	if path == home {
		return "~"
	}
	return path
}
