package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/suykerbuyk/notemeta/internal/settings"
)

//go:embed all:templates
var templates embed.FS

// Options controls scaffold behavior.
type Options struct {
	// SettingsPath receives a default settings record when no file exists
	// there. Empty skips it.
	SettingsPath string
}

// Init prepares a vault at targetPath for notemeta: the vault and state
// directories, the state .gitignore and a default settings record. Existing
// files are never overwritten. The returned paths are the files created.
func Init(targetPath string, opts Options) ([]string, error) {
	targetPath, err := filepath.Abs(targetPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	if info, err := os.Stat(targetPath); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("%s exists and is not a directory", targetPath)
	}

	var created []string

	// Walk embedded templates and copy to target.
	err = fs.WalkDir(templates, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Strip the "templates/" prefix to get the relative path within the vault.
		rel, err := filepath.Rel("templates", path)
		if err != nil {
			return err
		}
		dest := filepath.Join(targetPath, rel)

		if d.IsDir() {
			return os.MkdirAll(dest, 0o755)
		}
		if fileExists(dest) {
			return nil
		}

		data, err := templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read embedded %s: %w", path, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return err
		}
		created = append(created, dest)
		return nil
	})
	if err != nil {
		return created, fmt.Errorf("scaffold vault: %w", err)
	}

	if opts.SettingsPath != "" && !fileExists(opts.SettingsPath) {
		if err := settings.Save(opts.SettingsPath, settings.Defaults()); err != nil {
			return created, fmt.Errorf("write settings: %w", err)
		}
		created = append(created, opts.SettingsPath)
	}

	return created, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
