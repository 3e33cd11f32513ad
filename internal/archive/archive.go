package archive

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/suykerbuyk/notemeta/internal/atomicfile"
)

const (
	ext         = ".zst"
	stampLayout = "20060102-150405.000000"
)

// Snapshot compresses srcPath into dir/{base}.{stamp}.zst and returns the
// snapshot path.
func Snapshot(srcPath, dir string, at time.Time) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	return write(src, filepath.Base(srcPath), dir, at)
}

// SnapshotBytes stores data under name the same way Snapshot stores a file.
func SnapshotBytes(data []byte, name, dir string, at time.Time) (string, error) {
	return write(bytes.NewReader(data), name, dir, at)
}

func write(src io.Reader, name, dir string, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	destPath := SnapshotPath(name, dir, at)
	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer dest.Close()

	encoder, err := zstd.NewWriter(dest)
	if err != nil {
		return "", fmt.Errorf("create zstd encoder: %w", err)
	}

	if _, err := io.Copy(encoder, src); err != nil {
		encoder.Close()
		return "", fmt.Errorf("compress: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("finalize compression: %w", err)
	}

	return destPath, nil
}

// SnapshotPath returns the deterministic snapshot path for name at a time.
func SnapshotPath(name, dir string, at time.Time) string {
	return filepath.Join(dir, name+"."+at.UTC().Format(stampLayout)+ext)
}

// Decompress returns the uncompressed contents of a snapshot.
func Decompress(snapshotPath string) ([]byte, error) {
	src, err := os.Open(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer src.Close()

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return data, nil
}

// Restore decompresses snapshotPath over destPath atomically.
func Restore(snapshotPath, destPath string) error {
	data, err := Decompress(snapshotPath)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(destPath, data, 0o644); err != nil {
		return fmt.Errorf("restore %s: %w", destPath, err)
	}
	return nil
}

// List returns the snapshots of name in dir, oldest first.
func List(name, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	prefix := name + "."
	var out []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, prefix) || !strings.HasSuffix(n, ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(n, prefix), ext)
		if _, err := time.Parse(stampLayout, stamp); err != nil {
			continue
		}
		out = append(out, filepath.Join(dir, n))
	}
	sort.Strings(out)
	return out, nil
}
