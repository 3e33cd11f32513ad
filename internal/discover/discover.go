// Package discover finds markdown notes inside a vault.
package discover

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Note is a markdown file found on disk.
type Note struct {
	Path    string
	Rel     string // path relative to the vault root, slash-separated
	ModTime int64  // unix timestamp for sorting
}

// IsNote reports whether name has a markdown extension.
func IsNote(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}

// Notes walks vault recursively and returns every markdown file, sorted by
// modification time (oldest first). Hidden directories such as .notemeta
// and .git are skipped.
func Notes(vault string) ([]Note, error) {
	var results []Note

	err := filepath.WalkDir(vault, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == vault {
				return err
			}
			return nil // skip inaccessible entries
		}
		if d.IsDir() {
			if path != vault && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsNote(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(vault, path)
		if err != nil {
			rel = path
		}

		results = append(results, Note{
			Path:    path,
			Rel:     filepath.ToSlash(rel),
			ModTime: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ModTime != results[j].ModTime {
			return results[i].ModTime < results[j].ModTime
		}
		return results[i].Rel < results[j].Rel
	})

	return results, nil
}

// Find locates a note by name under vault. name may be a vault-relative
// path or a bare file name; a bare name matches the first note with that
// base name in walk order.
func Find(vault, name string) (string, error) {
	direct := filepath.Join(vault, name)
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, nil
	}
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		return "", os.ErrNotExist
	}

	var found string
	err := filepath.WalkDir(vault, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != vault && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == name {
			found = path
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", os.ErrNotExist
	}
	return found, nil
}
