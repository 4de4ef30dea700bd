// Package snapshot stores a collection as a JSON array file with a single
// generation backup next to it.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// File is a JSON array of T on disk. Saves copy the current file to the backup
// path before overwriting it, so the backup always holds the previous save.
type File[T any] struct {
	path   string
	backup string
	mu     sync.Mutex
}

// New returns a snapshot file at path. The backup lives beside it with a
// "_backup" suffix before the extension.
func New[T any](path string) *File[T] {
	return &File[T]{path: path, backup: BackupPath(path)}
}

// BackupPath returns the backup location of path.
func BackupPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_backup" + ext
}

// Path returns the primary file path.
func (f *File[T]) Path() string { return f.path }

// Backup returns the backup file path.
func (f *File[T]) Backup() string { return f.backup }

// Exists reports whether the primary file exists.
func (f *File[T]) Exists() bool { return exists(f.path) }

// HasBackup reports whether a backup file exists.
func (f *File[T]) HasBackup() bool { return exists(f.backup) }

// Load reads the primary file. A missing file returns an error wrapping
// os.ErrNotExist.
func (f *File[T]) Load() ([]T, error) {
	return read[T](f.path)
}

// LoadBackup reads the backup file.
func (f *File[T]) LoadBackup() ([]T, error) {
	return read[T](f.backup)
}

// Save writes records as the new primary file. The previous primary is first
// copied to the backup; when that copy fails the records themselves are
// written to the backup instead so a backup always exists after a save.
func (f *File[T]) Save(records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(f.path), err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	var backupErr error
	if exists(f.path) {
		backupErr = copyFile(f.path, f.backup)
	}
	if !exists(f.path) || backupErr != nil {
		if err := writeAtomic(f.backup, data); err != nil {
			return fmt.Errorf("writing backup %s: %w", filepath.Base(f.backup), errors.Join(backupErr, err))
		}
	}

	if err := writeAtomic(f.path, data); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(f.path), err)
	}
	return nil
}

// Restore replaces the primary file with the backup's contents and returns them.
func (f *File[T]) Restore() ([]T, error) {
	records, err := f.LoadBackup()
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", filepath.Base(f.path), err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := writeAtomic(f.path, data); err != nil {
		return nil, fmt.Errorf("writing %s: %w", filepath.Base(f.path), err)
	}
	return records, nil
}

func read[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return records, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
