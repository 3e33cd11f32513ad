package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/suykerbuyk/notemeta/internal/archive"
	"github.com/suykerbuyk/notemeta/internal/atomicfile"
)

// LoadResult describes what Load did besides decoding.
type LoadResult struct {
	Migrated bool
	// Backup is the zstd snapshot of the record as it was before migration.
	Backup string
}

// Load reads the record at path and upgrades it. A missing file yields
// Defaults. When Upgrade reports a migration the original bytes are
// snapshotted into backupDir (skipped when backupDir is empty) and the
// upgraded record is saved over path.
func Load(path, backupDir string) (Settings, LoadResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), LoadResult{}, nil
		}
		return Defaults(), LoadResult{}, fmt.Errorf("read settings: %w", err)
	}

	s, migrated, err := Upgrade(raw)
	if err != nil {
		return s, LoadResult{}, fmt.Errorf("%s: %w", path, err)
	}
	res := LoadResult{Migrated: migrated}
	if !migrated {
		return s, res, nil
	}

	if backupDir != "" {
		snap, err := archive.SnapshotBytes(raw, filepath.Base(path), backupDir, time.Now())
		if err != nil {
			return s, res, fmt.Errorf("back up settings: %w", err)
		}
		res.Backup = snap
	}

	if err := Save(path, s); err != nil {
		return s, res, err
	}
	return s, res, nil
}

// Save writes s to path atomically. The record holds API tokens, so new
// files are private to the owner.
func Save(path string, s Settings) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(path, data, 0o600); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
