package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends selectable for the alarm store.
const (
	// BackendFile stores alarms in a JSON file.
	BackendFile = "file"
	// BackendSQLite stores alarms in a SQLite database.
	BackendSQLite = "sqlite"
)

// Config holds process-level settings for the scheduler server.
// The persisted SchedulingConfig (wake window, adjustment caps and so on)
// lives behind the settings repository, not here.
type Config struct {
	// ListenAddress is the HTTP API listen address.
	ListenAddress string `yaml:"listen_addr"`
	// StorageBackend selects the alarm store implementation (file or sqlite).
	StorageBackend string `yaml:"storage_backend"`
	// AlarmsFile is the path to the JSON alarm store (file backend).
	AlarmsFile string `yaml:"alarms_file"`
	// DatabaseFile is the path to the SQLite database (sqlite backend).
	DatabaseFile string `yaml:"database_file"`
	// SettingsFile is the path to the key-value settings store.
	SettingsFile string `yaml:"settings_file"`
	// TickPeriod is the scheduling loop re-evaluation interval.
	TickPeriod time.Duration `yaml:"tick_period"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for server settings.
	DefaultConfigFilename = "scheduler-settings.yaml"

	// DefaultAlarmsFilename is the default filename for the JSON alarm store.
	DefaultAlarmsFilename = "scheduler-alarms.json"

	// DefaultDatabaseFilename is the default filename for the SQLite store.
	DefaultDatabaseFilename = "scheduler-alarms.db"

	// DefaultSettingsFilename is the default filename for persisted engine settings.
	DefaultSettingsFilename = "scheduler-state.json"

	// DefaultTickPeriod is the default scheduling loop interval.
	DefaultTickPeriod = time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errUnknownBackend is returned when the storage backend is not recognized.
	errUnknownBackend = errors.New("unknown storage backend")
)

// Load reads configuration from the provided path and validates essential fields.
// A missing file yields the defaults rather than an error, so the server can
// start without any configuration on disk.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := new(Config)
			if err = Validate(cfg); err != nil {
				return nil, err
			}

			return cfg, nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	switch cfg.StorageBackend {
	case "":
		cfg.StorageBackend = BackendFile
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("%w: %q", errUnknownBackend, cfg.StorageBackend)
	}

	if cfg.AlarmsFile == "" {
		cfg.AlarmsFile = DefaultAlarmsFilename
	}

	if cfg.DatabaseFile == "" {
		cfg.DatabaseFile = DefaultDatabaseFilename
	}

	if cfg.SettingsFile == "" {
		cfg.SettingsFile = DefaultSettingsFilename
	}

	if cfg.TickPeriod <= 0 {
		cfg.TickPeriod = DefaultTickPeriod
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	return nil
}
