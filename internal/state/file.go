package state

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore keeps cursors in a single JSON file. Each operation opens the
// file, takes an exclusive advisory lock, and closes it again, so
// concurrent invocations serialize their read-modify-write cycles.
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by the file at path. The file is
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Swap implements Store.
func (s *FileStore) Swap(_ context.Context, key, value string) (string, bool, error) {
	var previous string
	var ok bool
	err := s.update(func(entries map[string]string) bool {
		previous, ok = entries[key]
		entries[key] = value
		return true
	})
	if err != nil {
		return "", false, err
	}
	return previous, ok, nil
}

// Delete implements Store.
func (s *FileStore) Delete(_ context.Context, key string) error {
	return s.update(func(entries map[string]string) bool {
		if _, ok := entries[key]; !ok {
			return false
		}
		delete(entries, key)
		return true
	})
}

// All implements Store. A missing file yields an empty map.
func (s *FileStore) All(_ context.Context) (map[string]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("state: failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	if err := lockShared(f); err != nil {
		return nil, fmt.Errorf("state: failed to lock %s: %w", s.path, err)
	}
	defer unlock(f)

	return readEntries(f), nil
}

// Close implements Store. FileStore holds no open handles between calls.
func (s *FileStore) Close() error { return nil }

// update runs fn on the decoded file contents under an exclusive lock and
// rewrites the file when fn reports a change.
func (s *FileStore) update(fn func(entries map[string]string) bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("state: failed to create directory for %s: %w", s.path, err)
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return fmt.Errorf("state: failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	if err := lockExclusive(f); err != nil {
		return fmt.Errorf("state: failed to lock %s: %w", s.path, err)
	}
	defer unlock(f)

	entries := readEntries(f)
	if !fn(entries) {
		return nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("state: failed to encode entries: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("state: failed to truncate %s: %w", s.path, err)
	}
	if _, err := f.WriteAt(data, 0); err != nil {
		return fmt.Errorf("state: failed to write %s: %w", s.path, err)
	}
	return nil
}

// readEntries decodes the file contents. Empty or corrupt files read as
// an empty map so a damaged state file never blocks the check.
func readEntries(f *os.File) map[string]string {
	entries := make(map[string]string)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return entries
	}
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return entries
	}

	// Values written by older releases may not be strings.
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return entries
	}
	for k, v := range raw {
		if s, ok := v.(string); ok {
			entries[k] = s
		} else {
			entries[k] = fmt.Sprint(v)
		}
	}
	return entries
}
