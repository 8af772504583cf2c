package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks defaulting and format validation.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Defaults fill in on an empty config.
	cfg := new(Config)

	require.NoError(t, Validate(cfg))
	require.Equal(t, ":8080", cfg.ListenAddress)
	require.Equal(t, BackendFile, cfg.StorageBackend)
	require.Equal(t, DefaultTickPeriod, cfg.TickPeriod)

	// Bad listen address.
	cfg = &Config{ListenAddress: "bad:address"}

	require.Error(t, Validate(cfg))

	// Unknown backend.
	cfg = &Config{StorageBackend: "redis"}

	require.Error(t, Validate(cfg))
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		ListenAddress:  "127.0.0.1:9090",
		StorageBackend: BackendSQLite,
		TickPeriod:     30 * time.Second,
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ListenAddress, loaded.ListenAddress)
	require.Equal(t, cfg.StorageBackend, loaded.StorageBackend)
	require.Equal(t, cfg.TickPeriod, loaded.TickPeriod)
}

// TestLoad_MissingFileDefaults ensures a missing config file yields defaults.
func TestLoad_MissingFileDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, BackendFile, cfg.StorageBackend)
}
