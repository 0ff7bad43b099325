package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps settings in a single JSON file.
type FileStore struct {
	path     string
	defaults Settings
	mu       sync.RWMutex
}

func NewFileStore(path string, defaults Settings) *FileStore {
	return &FileStore{path: path, defaults: defaults}
}

func (f *FileStore) Get(ctx context.Context) (Settings, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	s := f.defaults
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return f.defaults, fmt.Errorf("failed to read settings file: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return f.defaults, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return s, nil
}

// Put replaces the file atomically.
func (f *FileStore) Put(ctx context.Context, s Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	return nil
}
