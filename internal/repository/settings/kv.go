package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Coolhgg/relife-scheduler/internal/config"
)

// KV is the configuration persistence collaborator: a minimal key-value
// store for serialized engine state.
type KV interface {
	// Get returns the value for key, with found=false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set stores the value under key.
	Set(ctx context.Context, key, value string) error
}

// FileKV persists the key-value pairs as a single JSON object on disk.
type FileKV struct {
	// path is the filesystem location of the JSON file.
	path string
	// mu protects concurrent access to the file.
	mu sync.Mutex
}

// NewFileKV creates a store that reads/writes JSON at the provided path.
func NewFileKV(path string) *FileKV {
	return &FileKV{
		path: filepath.Clean(path),
	}
}

// Get returns the stored value for key.
func (s *FileKV) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}

	value, found := values[key]

	return value, found, nil
}

// Set stores the value under key.
func (s *FileKV) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}

	values[key] = value

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err = os.WriteFile(s.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

// read loads the file; a missing file yields an empty map.
func (s *FileKV) read() (map[string]string, error) {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}

		return nil, fmt.Errorf("read settings file: %w", err)
	}

	values := map[string]string{}
	if err = json.Unmarshal(contents, &values); err != nil {
		return nil, fmt.Errorf("decode settings file: %w", err)
	}

	return values, nil
}
