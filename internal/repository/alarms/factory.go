package alarms

import (
	"fmt"

	"github.com/Coolhgg/relife-scheduler/internal/config"
)

// NewFromConfig builds the alarm store selected by the process configuration.
// The returned closer releases backend resources and is a no-op for the file
// backend.
func NewFromConfig(cfg *config.Config) (Store, func() error, error) {
	switch cfg.StorageBackend {
	case config.BackendSQLite:
		store, err := NewSQLiteStore(cfg.DatabaseFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}

		return store, store.Close, nil
	case config.BackendFile:
		return NewFileStore(cfg.AlarmsFile), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
