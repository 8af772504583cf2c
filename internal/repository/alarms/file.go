package alarms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Coolhgg/relife-scheduler/internal/config"
	domain "github.com/Coolhgg/relife-scheduler/internal/domain/alarm"
)

// FileStore persists the alarm collection as a JSON file on disk.
// Every mutation rewrites the whole file; the collection is small (a user's
// alarms) so this stays cheap and keeps the format inspectable.
type FileStore struct {
	// path is the filesystem location of the JSON alarms file.
	path string
	// mu protects concurrent access to the alarms file.
	mu sync.Mutex
}

// fileFormat is the on-disk shape of the alarms file.
type fileFormat struct {
	// Alarms is the stored collection.
	Alarms []*domain.Alarm `json:"alarms"`
}

// NewFileStore creates a store that reads/writes JSON at the provided path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: filepath.Clean(path),
	}
}

// List returns all stored alarms.
func (s *FileStore) List(_ context.Context) ([]*domain.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return nil, err
	}

	result := make([]*domain.Alarm, 0, len(contents.Alarms))
	for _, a := range contents.Alarms {
		result = append(result, a.Clone())
	}

	return result, nil
}

// Get returns the alarm with the given id.
func (s *FileStore) Get(_ context.Context, id string) (*domain.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return nil, err
	}

	for _, a := range contents.Alarms {
		if a.ID == id {
			return a.Clone(), nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create stores a new alarm, minting an id when none is set.
func (s *FileStore) Create(_ context.Context, a *domain.Alarm) (*domain.Alarm, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return nil, err
	}

	stored := a.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	for _, existing := range contents.Alarms {
		if existing.ID == stored.ID {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, stored.ID)
		}
	}

	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}

	stored.UpdatedAt = now

	contents.Alarms = append(contents.Alarms, stored)

	if err := s.write(contents); err != nil {
		return nil, err
	}

	return stored.Clone(), nil
}

// Update applies a partial update to an existing alarm.
func (s *FileStore) Update(_ context.Context, id string, patch *domain.Patch) (*domain.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return nil, err
	}

	for index, existing := range contents.Alarms {
		if existing.ID != id {
			continue
		}

		updated := existing.Clone()
		updated.Apply(patch)

		if err := updated.Validate(); err != nil {
			return nil, err
		}

		contents.Alarms[index] = updated

		if err := s.write(contents); err != nil {
			return nil, err
		}

		return updated.Clone(), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the alarm with the given id.
func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents, err := s.read()
	if err != nil {
		return err
	}

	for index, existing := range contents.Alarms {
		if existing.ID != id {
			continue
		}

		contents.Alarms = append(contents.Alarms[:index], contents.Alarms[index+1:]...)

		return s.write(contents)
	}

	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// read loads the alarms file; a missing file yields an empty collection.
func (s *FileStore) read() (*fileFormat, error) {
	contents, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileFormat{}, nil
		}

		return nil, fmt.Errorf("read alarms file: %w", err)
	}

	var stored fileFormat
	if err = json.Unmarshal(contents, &stored); err != nil {
		return nil, fmt.Errorf("decode alarms file: %w", err)
	}

	return &stored, nil
}

// write persists the alarms file with restricted permissions.
func (s *FileStore) write(contents *fileFormat) error {
	data, err := json.MarshalIndent(contents, "", "  ")
	if err != nil {
		return fmt.Errorf("encode alarms: %w", err)
	}

	if err = os.WriteFile(s.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write alarms file: %w", err)
	}

	return nil
}
